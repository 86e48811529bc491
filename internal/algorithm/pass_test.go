package algorithm

import (
	"testing"

	"mpi-linkage/internal/compare"
	"mpi-linkage/internal/pii"
)

func recordWithLastName(name string) *pii.Record {
	return &pii.Record{Name: []pii.Name{{Family: name}}}
}

func recordWithLastNameAndBirthDate(name, birthDate string) *pii.Record {
	return &pii.Record{BirthDate: birthDate, Name: []pii.Name{{Family: name}}}
}

func TestEvaluatePassGradesCertainOnExactMatch(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastNameAndBirthDate("Shepard", "1990-01-01")
	candidates := []PatientCandidate{
		{PatientID: 1, PersonID: 100, Record: recordWithLastNameAndBirthDate("Shepard", "1990-01-01")},
	}

	results := cfg.EvaluatePass(cfg.Passes[0], incoming, candidates)
	if len(results) != 1 {
		t.Fatalf("EvaluatePass results = %v, want 1 cluster", results)
	}
	if results[0].Grade != GradeCertain {
		t.Fatalf("Grade = %v, want certain (rms=%v)", results[0].Grade, results[0].RMS)
	}
}

func TestEvaluatePassSkipsOverMissingPatient(t *testing.T) {
	cfg := validConfig()
	cfg.Advanced.MaxMissingAllowedProportion = 0.1
	incoming := recordWithLastName("Shepard")
	// Candidate has neither LAST_NAME nor BIRTHDATE: both evaluators missing,
	// missingness = 1.0 > 0.1, so it must be skipped from the cluster.
	candidates := []PatientCandidate{
		{PatientID: 1, PersonID: 100, Record: &pii.Record{}},
	}

	results := cfg.EvaluatePass(cfg.Passes[0], incoming, candidates)
	if len(results) != 0 {
		t.Fatalf("EvaluatePass = %v, want no clusters (sole patient skipped)", results)
	}
}

func TestEvaluatePassMedianOverCluster(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastName("Shepard")
	candidates := []PatientCandidate{
		{PatientID: 1, PersonID: 100, Record: recordWithLastName("Shepard")},  // exact LAST_NAME, BIRTHDATE missing
		{PatientID: 2, PersonID: 100, Record: recordWithLastName("Shepherd")}, // partial fuzzy match, BIRTHDATE missing
	}

	results := cfg.EvaluatePass(cfg.Passes[0], incoming, candidates)
	if len(results) != 1 {
		t.Fatalf("EvaluatePass results = %v, want 1 merged cluster", results)
	}
	if results[0].PersonID != 100 {
		t.Fatalf("PersonID = %d, want 100", results[0].PersonID)
	}

	// Each patient earns 8*0.5 for the missing BIRTHDATE; the cluster's
	// points are the mean of the two patients' sums, over 18 possible.
	exact := 10.0 + 4
	fuzzy := 10*compare.Similarity(compare.JaroWinkler, "shepard", "shepherd") + 4
	want := (exact + fuzzy) / 2 / 18
	if diff := results[0].RMS - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("RMS = %v, want median-based %v", results[0].RMS, want)
	}
}

func TestEvaluatePassGroupsDistinctPersons(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastName("Shepard")
	candidates := []PatientCandidate{
		{PatientID: 1, PersonID: 100, Record: recordWithLastName("Shepard")},
		{PatientID: 2, PersonID: 200, Record: recordWithLastName("Jones")},
	}

	results := cfg.EvaluatePass(cfg.Passes[0], incoming, candidates)
	if len(results) != 2 {
		t.Fatalf("EvaluatePass results = %v, want 2 clusters", results)
	}
}
