package compare

import (
	"testing"

	"mpi-linkage/internal/pii"
)

func TestExactMatchEarnsFullWeight(t *testing.T) {
	a := &pii.Record{Sex: "M"}
	b := &pii.Record{Sex: "M"}

	got := Exact{}.Compare(a, b, pii.SEX, 10, 0.5)
	if got.Points != 10 || got.Possible != 10 || got.Missing {
		t.Fatalf("Exact match = %+v, want {10 10 false}", got)
	}
}

func TestExactMismatchEarnsZero(t *testing.T) {
	a := &pii.Record{Sex: "M"}
	b := &pii.Record{Sex: "F"}

	got := Exact{}.Compare(a, b, pii.SEX, 10, 0.5)
	if got.Points != 0 || got.Possible != 10 || got.Missing {
		t.Fatalf("Exact mismatch = %+v, want {0 10 false}", got)
	}
}

func TestExactMissingUsesProportion(t *testing.T) {
	a := &pii.Record{}
	b := &pii.Record{Sex: "F"}

	got := Exact{}.Compare(a, b, pii.SEX, 10, 0.5)
	if got.Points != 5 || got.Possible != 10 || !got.Missing {
		t.Fatalf("Exact missing = %+v, want {5 10 true}", got)
	}
}

func TestFuzzyAboveThresholdScalesBySimilarity(t *testing.T) {
	a := &pii.Record{Name: []pii.Name{{Family: "Smith"}}}
	b := &pii.Record{Name: []pii.Name{{Family: "Smith"}}}

	fuzzy := Fuzzy{Measure: JaroWinkler, Threshold: 0.9}
	got := fuzzy.Compare(a, b, pii.LAST_NAME, 20, 0.5)
	if got.Points != 20 || got.Possible != 20 {
		t.Fatalf("Fuzzy identical = %+v, want {20 20 false}", got)
	}
}

func TestFuzzyBelowThresholdEarnsZero(t *testing.T) {
	a := &pii.Record{Name: []pii.Name{{Family: "Smith"}}}
	b := &pii.Record{Name: []pii.Name{{Family: "Jones"}}}

	fuzzy := Fuzzy{Measure: JaroWinkler, Threshold: 0.95}
	got := fuzzy.Compare(a, b, pii.LAST_NAME, 20, 0.5)
	if got.Points != 0 || got.Possible != 20 || got.Missing {
		t.Fatalf("Fuzzy below threshold = %+v, want {0 20 false}", got)
	}
}

func TestFuzzyMissingUsesProportion(t *testing.T) {
	a := &pii.Record{}
	b := &pii.Record{Name: []pii.Name{{Family: "Jones"}}}

	fuzzy := Fuzzy{Measure: JaroWinkler, Threshold: 0.9}
	got := fuzzy.Compare(a, b, pii.LAST_NAME, 20, 0.25)
	if got.Points != 5 || got.Possible != 20 || !got.Missing {
		t.Fatalf("Fuzzy missing = %+v, want {5 20 true}", got)
	}
}

func TestFuzzyAddressTakesBestPairwiseLine(t *testing.T) {
	a := &pii.Record{Address: []pii.Address{{Line: []string{"123 Main St", "Apt 4"}}}}
	b := &pii.Record{Address: []pii.Address{{Line: []string{"123 Main Street"}}}}

	fuzzy := Fuzzy{Measure: JaroWinkler, Threshold: 0.8}
	got := fuzzy.Compare(a, b, pii.ADDRESS, 15, 0.5)
	if got.Points <= 0 {
		t.Fatalf("Fuzzy address best-pairwise = %+v, want positive points", got)
	}
}

func TestExactIdentifierRequiresFullTripleMatch(t *testing.T) {
	a := &pii.Record{Identifiers: []pii.Identifier{{Type: "MR", Authority: "HOSP", Value: "123"}}}
	b := &pii.Record{Identifiers: []pii.Identifier{{Type: "MR", Authority: "HOSP", Value: "456"}}}

	got := Exact{}.Compare(a, b, pii.IDENTIFIER, 30, 0.5)
	if got.Points != 0 {
		t.Fatalf("Exact identifier mismatched value = %+v, want 0 points", got)
	}

	b.Identifiers[0].Value = "123"
	got = Exact{}.Compare(a, b, pii.IDENTIFIER, 30, 0.5)
	if got.Points != 30 {
		t.Fatalf("Exact identifier full triple match = %+v, want 30 points", got)
	}
}
