package blocking

import (
	"testing"

	"mpi-linkage/internal/pii"
)

func TestExtractFirstNameTruncatesToFour(t *testing.T) {
	record := &pii.Record{Name: []pii.Name{{Family: "Shepard", Given: []string{"Johnathan"}}}}

	got := Extract(record, KeyFirstName)
	if len(got) != 1 || got[0] != "JOHN" {
		t.Fatalf("Extract(KeyFirstName) = %v, want [JOHN]", got)
	}
}

func TestExtractDropsShortValues(t *testing.T) {
	record := &pii.Record{Name: []pii.Name{{Family: "Li", Given: []string{"Jo"}}}}

	if got := Extract(record, KeyFirstName); got != nil {
		t.Fatalf("Extract(KeyFirstName) on short value = %v, want nil (dropped, not padded)", got)
	}
	if got := Extract(record, KeyLastName); got != nil {
		t.Fatalf("Extract(KeyLastName) on short value = %v, want nil (dropped, not padded)", got)
	}
}

func TestIdentifierBlockingValueFormat(t *testing.T) {
	id := pii.Identifier{Type: "MR", Authority: "HOSP", Value: "123456789"}
	got := IdentifierBlockingValue(id)
	want := "MR:HO:6789"
	if got != want {
		t.Fatalf("IdentifierBlockingValue = %q, want %q", got, want)
	}
}

func TestExtractPhoneLastFour(t *testing.T) {
	record := &pii.Record{Telecom: []pii.Telecom{{System: "phone", Value: "5551234567"}}}
	got := Extract(record, KeyPhone)
	if len(got) != 1 || got[0] != "4567" {
		t.Fatalf("Extract(KeyPhone) = %v, want [4567]", got)
	}
}

func TestExtractAllIsDeterministicOrder(t *testing.T) {
	record := &pii.Record{
		BirthDate: "1990-01-01",
		Sex:       "M",
		Name:      []pii.Name{{Family: "Shepard", Given: []string{"John"}}},
	}

	first := ExtractAll(record)
	second := ExtractAll(record)

	if len(first) != len(second) {
		t.Fatalf("ExtractAll not deterministic in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ExtractAll not deterministic at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}
