package pii

import "testing"

func TestNormalizeBirthDateFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1967-06-06", "1967-06-06"},
		{"1967/06/06", "1967-06-06"},
		{"06/06/1967", "1967-06-06"},
	}
	for _, c := range cases {
		got, err := normalizeBirthDate(c.in)
		if err != nil {
			t.Fatalf("normalizeBirthDate(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("normalizeBirthDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeBirthDateFutureRejected(t *testing.T) {
	if _, err := normalizeBirthDate("2099-01-01"); err == nil {
		t.Fatal("expected error for future birthdate")
	}
}

func TestNormalizeBirthDateUnparseableRejected(t *testing.T) {
	if _, err := normalizeBirthDate("not-a-date"); err == nil {
		t.Fatal("expected error for unparseable birthdate")
	}
}

func TestNormalizeSex(t *testing.T) {
	cases := map[string]string{
		"male": "M", "M": "M", "1": "M",
		"female": "F", "f": "F", "2": "F",
		"unknown": "", "": "",
	}
	for in, want := range cases {
		if got := normalizeSex(in); got != want {
			t.Errorf("normalizeSex(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePhoneStripsCountryCode(t *testing.T) {
	if got := normalizePhone("+1 (555) 123-4567"); got != "5551234567" {
		t.Errorf("normalizePhone = %q, want 5551234567", got)
	}
}

func TestNormalizeZipTruncates(t *testing.T) {
	if got := normalizeZip("12345-6789"); got != "12345" {
		t.Errorf("normalizeZip = %q, want 12345", got)
	}
}

func TestNormalizeStateFullName(t *testing.T) {
	if got := normalizeState("California"); got != "CA" {
		t.Errorf("normalizeState = %q, want CA", got)
	}
	if got := normalizeState("zz"); got != "" {
		t.Errorf("normalizeState(unknown) = %q, want empty", got)
	}
}

func TestNormalizeStreetSuffix(t *testing.T) {
	if got := normalizeStreetSuffix("100 Main Street"); got != "100 Main ST" {
		t.Errorf("normalizeStreetSuffix = %q, want '100 Main ST'", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := &Raw{
		BirthDate: "1967-06-06",
		Sex:       "male",
		Name:      []RawName{{Family: "Shepard", Given: []string{"John"}}},
		Address:   []RawAddress{{Line: []string{"100 Main Street"}, City: "Metropolis", State: "California", PostalCode: "12345-6789"}},
		Telecom:   []RawTelecom{{System: "phone", Value: "+1 (555) 123-4567"}},
	}

	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	second, err := Normalize(recordToRaw(first))
	if err != nil {
		t.Fatalf("Normalize (second pass): %v", err)
	}

	if first.BirthDate != second.BirthDate || first.Sex != second.Sex {
		t.Fatalf("normalize not idempotent: %+v vs %+v", first, second)
	}
	if first.Address[0].State != second.Address[0].State || first.Address[0].PostalCode != second.Address[0].PostalCode {
		t.Fatalf("normalize not idempotent on address: %+v vs %+v", first.Address[0], second.Address[0])
	}
}

func recordToRaw(r *Record) *Raw {
	raw := &Raw{BirthDate: r.BirthDate, Sex: r.Sex}
	for _, n := range r.Name {
		raw.Name = append(raw.Name, RawName{Family: n.Family, Given: n.Given, Suffix: n.Suffix})
	}
	for _, a := range r.Address {
		raw.Address = append(raw.Address, RawAddress{Line: a.Line, City: a.City, State: a.State, PostalCode: a.PostalCode, County: a.County})
	}
	for _, t := range r.Telecom {
		raw.Telecom = append(raw.Telecom, RawTelecom{System: t.System, Value: t.Value})
	}
	raw.Identifiers = r.Identifiers
	return raw
}
