package linkage_test

import (
	"context"
	"errors"
	"testing"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/linkage"
	"mpi-linkage/internal/mpi"
	"mpi-linkage/internal/pii"
)

// stubStore is a single-entry algorithm.Store test double.
type stubStore struct {
	cfg *algorithm.Config
}

func (s *stubStore) Save(ctx context.Context, cfg *algorithm.Config) error {
	s.cfg = cfg
	return nil
}

func (s *stubStore) Load(ctx context.Context, label string) (*algorithm.Config, error) {
	if s.cfg == nil || label != s.cfg.Label {
		return nil, algorithm.ErrNotFound
	}
	return s.cfg, nil
}

// recordingAudit captures entries passed to Record, synchronously (tests
// call the service, which dispatches Record on its own goroutine; tests
// that care about the entry wait on a channel).
type recordingAudit struct {
	entries chan linkage.AuditEntry
}

func newRecordingAudit() *recordingAudit {
	return &recordingAudit{entries: make(chan linkage.AuditEntry, 1)}
}

func (a *recordingAudit) Record(ctx context.Context, entry linkage.AuditEntry) {
	a.entries <- entry
}

func exactConfig(label string) *algorithm.Config {
	return &algorithm.Config{
		Label: label,
		LogOdds: []algorithm.LogOdds{
			{Feature: pii.LAST_NAME, Value: 10},
			{Feature: pii.BIRTHDATE, Value: 10},
		},
		Advanced: algorithm.DefaultAdvanced(),
		Passes: []algorithm.Pass{
			{
				Label:        "pass-1",
				BlockingKeys: []blocking.Key{blocking.KeyLastName},
				Evaluators: []algorithm.Evaluator{
					{Feature: pii.LAST_NAME, Func: algorithm.CompareProbabilisticExact},
					{Feature: pii.BIRTHDATE, Func: algorithm.CompareProbabilisticExact},
				},
				Window: algorithm.Window{MinRMS: 0.5, CertainRMS: 0.9},
			},
		},
	}
}

func TestLinkCreatesNewPersonWhenNoCandidatesMatch(t *testing.T) {
	repo := mpi.NewInMemoryRepository()
	store := &stubStore{cfg: exactConfig("default")}
	service := linkage.NewService(repo, store, "default", nil, 0)

	resp, err := service.Link(context.Background(), linkage.Request{
		Record: &pii.Raw{BirthDate: "1990-01-01", Name: []pii.RawName{{Family: "Smith"}}},
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if resp.PersonReferenceID == nil {
		t.Fatal("expected a new Person to be created")
	}
	if resp.MatchGrade != algorithm.GradeCertainlyNot {
		t.Fatalf("grade = %v, want certainly-not", resp.MatchGrade)
	}
}

func TestLinkAttachesToCertainMatchAndDispatchesAudit(t *testing.T) {
	repo := mpi.NewInMemoryRepository()
	store := &stubStore{cfg: exactConfig("default")}
	audit := newRecordingAudit()
	service := linkage.NewService(repo, store, "default", audit, 0)

	first, err := service.Link(context.Background(), linkage.Request{
		Record: &pii.Raw{BirthDate: "1990-01-01", Name: []pii.RawName{{Family: "Smith"}}},
	})
	if err != nil {
		t.Fatalf("first Link: %v", err)
	}
	<-audit.entries

	second, err := service.Link(context.Background(), linkage.Request{
		Record: &pii.Raw{BirthDate: "1990-01-01", Name: []pii.RawName{{Family: "Smith"}}},
	})
	if err != nil {
		t.Fatalf("second Link: %v", err)
	}
	entry := <-audit.entries

	if second.MatchGrade != algorithm.GradeCertain {
		t.Fatalf("grade = %v, want certain", second.MatchGrade)
	}
	if second.PersonReferenceID == nil || *second.PersonReferenceID != *first.PersonReferenceID {
		t.Fatal("expected the second record to attach to the first record's Person")
	}
	if entry.PatientReferenceID != second.PatientReferenceID {
		t.Fatal("audit entry should describe the just-decided patient")
	}
}

func TestLinkRejectsUnknownAlgorithm(t *testing.T) {
	repo := mpi.NewInMemoryRepository()
	store := &stubStore{}
	service := linkage.NewService(repo, store, "default", nil, 0)

	_, err := service.Link(context.Background(), linkage.Request{
		Record: &pii.Raw{BirthDate: "1990-01-01"},
	})

	var lerr *linkage.Error
	if !errors.As(err, &lerr) || lerr.Kind != linkage.KindInvalidAlgorithm {
		t.Fatalf("err = %v, want invalid-algorithm", err)
	}
}

func TestLinkRejectsEmptyRecordAfterCleaning(t *testing.T) {
	repo := mpi.NewInMemoryRepository()
	store := &stubStore{cfg: exactConfig("default")}
	service := linkage.NewService(repo, store, "default", nil, 0)

	_, err := service.Link(context.Background(), linkage.Request{Record: &pii.Raw{}})

	var lerr *linkage.Error
	if !errors.As(err, &lerr) || lerr.Kind != linkage.KindEmptyRecord {
		t.Fatalf("err = %v, want empty-record", err)
	}
}
