package linkage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/clean"
	"mpi-linkage/internal/mpi"
	"mpi-linkage/internal/pii"
)

// Request is the normalized shape of a POST /link call (§6).
type Request struct {
	Record               *pii.Raw
	Algorithm            string // label; "" means the configured default
	ExternalPatientID    *string
	ExternalPersonID     *string
	ExternalPersonSource *string
	IncludeMultipleMatches bool
}

// ClusterMatch is one entry of Response.Results.
type ClusterMatch struct {
	PersonReferenceID uuid.UUID
	RMS               float64
	Grade             algorithm.Grade
	PassLabel         string
}

// Response is the POST /link contract's response body (§6).
type Response struct {
	PatientReferenceID uuid.UUID
	PersonReferenceID  *uuid.UUID
	MatchGrade         algorithm.Grade
	Results            []ClusterMatch
}

// AuditRecorder receives one fire-and-forget decision record per call. It
// must never block or fail the response (§ SPEC_FULL.md DOMAIN STACK:
// decision-audit sink).
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry is the shape handed to AuditRecorder after a decision.
type AuditEntry struct {
	PatientReferenceID uuid.UUID
	PersonReferenceID  *uuid.UUID
	Algorithm          string
	MatchGrade         algorithm.Grade
	Results            []ClusterMatch
	DecidedAt          time.Time
}

// Service orchestrates one linkage request: normalize -> clean -> run the
// algorithm driver over every pass -> persist -> audit.
type Service struct {
	repo         mpi.Repository
	algorithms   algorithm.Store
	defaultLabel string
	audit        AuditRecorder
	timeout      time.Duration
}

// NewService wires a linkage Service. timeout bounds the whole request per
// §5 ("the driver is bounded by an overall per-request timeout"); zero
// means the spec's 30s default.
func NewService(repo mpi.Repository, algorithms algorithm.Store, defaultLabel string, audit AuditRecorder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{repo: repo, algorithms: algorithms, defaultLabel: defaultLabel, audit: audit, timeout: timeout}
}

// Link runs one linkage request end to end.
func (s *Service) Link(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	label := req.Algorithm
	if label == "" {
		label = s.defaultLabel
	}
	cfg, err := s.algorithms.Load(ctx, label)
	if err != nil {
		if errors.Is(err, algorithm.ErrNotFound) {
			return nil, newError(KindInvalidAlgorithm, "No algorithm found", err)
		}
		return nil, newError(KindStorageUnavailable, "loading algorithm configuration", err)
	}

	normalized, err := pii.Normalize(req.Record)
	if err != nil {
		return nil, newError(KindInvalidInput, err.Error(), err)
	}

	var rules []clean.Rule
	for _, sv := range cfg.SkipValues {
		rules = append(rules, clean.Rule{Feature: sv.Feature, Values: sv.Values})
	}
	cleaned := clean.Clean(normalized, rules)

	if cleaned.IsEmpty() {
		return nil, newError(KindEmptyRecord, "record has no usable field after normalization and cleaning", nil)
	}

	decision, err := cfg.Run(ctx, s.repo, cleaned, req.IncludeMultipleMatches)
	if err != nil {
		return nil, newError(KindStorageUnavailable, "blocking query failed", err)
	}

	response, err := s.persist(ctx, normalized, decision, req)
	if err != nil {
		return nil, err
	}

	entry := AuditEntry{
		PatientReferenceID: response.PatientReferenceID,
		PersonReferenceID:  response.PersonReferenceID,
		Algorithm:          label,
		MatchGrade:         response.MatchGrade,
		Results:            response.Results,
		DecidedAt:          time.Now(),
	}
	if s.audit != nil {
		go s.audit.Record(context.Background(), entry)
	}

	return response, nil
}

// persist always inserts the incoming record as a new Patient (§4.6: "the
// incoming record is always persisted as a new Patient"), and either
// attaches it to the best certain cluster, leaves it unattached on
// possible, or mints a fresh Person on certainly-not.
func (s *Service) persist(ctx context.Context, record *pii.Record, decision algorithm.Decision, req Request) (*Response, error) {
	var personID *int64

	if decision.NewPerson {
		person, err := s.repo.InsertPerson(ctx)
		if err != nil {
			return nil, newError(KindStorageUnavailable, "creating person", err)
		}
		personID = &person.ID
	} else if decision.Attach {
		id := decision.PersonID
		personID = &id
	}

	patient, err := s.repo.InsertPatient(ctx, record, personID, req.ExternalPatientID, req.ExternalPersonID, req.ExternalPersonSource)
	if err != nil {
		return nil, newError(KindStorageUnavailable, "creating patient", err)
	}

	var personRef *uuid.UUID
	if personID != nil {
		person, err := s.repo.GetPersonByID(ctx, *personID)
		if err != nil {
			return nil, newError(KindStorageUnavailable, "resolving person reference", err)
		}
		personRef = &person.ReferenceID
	}

	var results []ClusterMatch
	for _, r := range decision.Results {
		person, err := s.repo.GetPersonByID(ctx, r.PersonID)
		if err != nil {
			continue
		}
		results = append(results, ClusterMatch{
			PersonReferenceID: person.ReferenceID,
			RMS:               r.RMS,
			Grade:             r.Grade,
			PassLabel:         r.PassLabel,
		})
	}

	return &Response{
		PatientReferenceID: patient.ReferenceID,
		PersonReferenceID:  personRef,
		MatchGrade:         decision.Grade,
		Results:            results,
	}, nil
}

