package algorithm

import (
	"context"
	"testing"

	"mpi-linkage/internal/blocking"
)

type stubBlocker struct {
	candidates []PatientCandidate
}

func (s stubBlocker) Block(ctx context.Context, tuples []blocking.Value) ([]PatientCandidate, error) {
	if len(tuples) == 0 {
		return nil, nil
	}
	return s.candidates, nil
}

func TestRunAttachesOnCertainMatch(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastNameAndBirthDate("Shepard", "1990-01-01")
	blocker := stubBlocker{candidates: []PatientCandidate{
		{PatientID: 1, PersonID: 42, Record: recordWithLastNameAndBirthDate("Shepard", "1990-01-01")},
	}}

	decision, err := cfg.Run(context.Background(), blocker, incoming, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if decision.Grade != GradeCertain || !decision.Attach || decision.NewPerson {
		t.Fatalf("Decision = %+v, want certain/attach/no-new-person", decision)
	}
	if decision.PersonID != 42 {
		t.Fatalf("PersonID = %d, want 42", decision.PersonID)
	}
}

func TestRunDoesNotAttachOnPossibleMatch(t *testing.T) {
	cfg := validConfig()
	cfg.Passes[0].Window = Window{MinRMS: 0.01, CertainRMS: 0.99}
	incoming := recordWithLastNameAndBirthDate("Shepard", "1990-01-01")
	// No birthdate match -> RMS below certain but above min.
	blocker := stubBlocker{candidates: []PatientCandidate{
		{PatientID: 1, PersonID: 42, Record: recordWithLastName("Shepard")},
	}}

	decision, err := cfg.Run(context.Background(), blocker, incoming, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if decision.Grade != GradePossible || decision.Attach {
		t.Fatalf("Decision = %+v, want possible/no-attach", decision)
	}
}

func TestRunCreatesNewPersonWhenNoCandidates(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastNameAndBirthDate("Shepard", "1990-01-01")
	blocker := stubBlocker{}

	decision, err := cfg.Run(context.Background(), blocker, incoming, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if decision.Grade != GradeCertainlyNot || !decision.NewPerson || !decision.Attach {
		t.Fatalf("Decision = %+v, want certainly-not/new-person/attach", decision)
	}
}

func TestRunSinglesBestCertainWhenIncludeMultipleFalse(t *testing.T) {
	cfg := validConfig()
	incoming := recordWithLastNameAndBirthDate("Shepard", "1990-01-01")
	blocker := stubBlocker{candidates: []PatientCandidate{
		{PatientID: 1, PersonID: 10, Record: recordWithLastNameAndBirthDate("Shepard", "1990-01-01")},
		{PatientID: 2, PersonID: 20, Record: recordWithLastNameAndBirthDate("Shepard", "1990-01-01")},
	}}

	decision, err := cfg.Run(context.Background(), blocker, incoming, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(decision.Results) != 1 {
		t.Fatalf("Results = %v, want exactly 1 (includeMultipleMatches=false)", decision.Results)
	}
	if decision.PersonID != 10 {
		t.Fatalf("PersonID = %d, want 10 (tie-break by smallest person_id)", decision.PersonID)
	}
}
