// Package audit is the decision-audit sink: one MongoDB document per
// POST /link call, written fire-and-forget so a slow or unavailable
// audit store never blocks or fails the linkage response, mirroring the
// reference domain module's cache-warming goroutine.
package audit

import (
	"context"
	"fmt"
	"time"

	"mpi-linkage/internal/infrastructure/database/mongodb"
	"mpi-linkage/internal/linkage"
)

const collectionName = "link_decisions"

// document is the Mongo-stored shape of one linkage.AuditEntry.
type document struct {
	PatientReferenceID string            `bson:"patient_reference_id"`
	PersonReferenceID  *string           `bson:"person_reference_id,omitempty"`
	Algorithm          string            `bson:"algorithm"`
	MatchGrade         string            `bson:"match_grade"`
	Results            []resultDocument  `bson:"results,omitempty"`
	DecidedAt          time.Time         `bson:"decided_at"`
}

type resultDocument struct {
	PersonReferenceID string  `bson:"person_reference_id"`
	RMS               float64 `bson:"rms"`
	Grade             string  `bson:"grade"`
	PassLabel         string  `bson:"pass_label"`
}

// Sink is a MongoDB-backed linkage.AuditRecorder.
type Sink struct {
	mongo *mongodb.Client
}

// NewSink wires a MongoDB-backed decision-audit sink.
func NewSink(client *mongodb.Client) *Sink {
	return &Sink{mongo: client}
}

var _ linkage.AuditRecorder = (*Sink)(nil)

// Record writes one document for entry. Called from a goroutine by
// linkage.Service; any failure is logged, never returned or retried.
func (s *Sink) Record(ctx context.Context, entry linkage.AuditEntry) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := document{
		PatientReferenceID: entry.PatientReferenceID.String(),
		Algorithm:          entry.Algorithm,
		MatchGrade:         string(entry.MatchGrade),
		DecidedAt:          entry.DecidedAt,
	}
	if entry.PersonReferenceID != nil {
		id := entry.PersonReferenceID.String()
		doc.PersonReferenceID = &id
	}
	for _, r := range entry.Results {
		doc.Results = append(doc.Results, resultDocument{
			PersonReferenceID: r.PersonReferenceID.String(),
			RMS:               r.RMS,
			Grade:             string(r.Grade),
			PassLabel:         r.PassLabel,
		})
	}

	if _, err := s.mongo.Collection(collectionName).InsertOne(ctx, doc); err != nil {
		fmt.Printf("[AUDIT] failed to record link decision - patient: %s, grade: %s, error: %v\n",
			doc.PatientReferenceID, doc.MatchGrade, err)
		return
	}

	fmt.Printf("[AUDIT] link decision recorded - patient: %s, grade: %s, algorithm: %s\n",
		doc.PatientReferenceID, doc.MatchGrade, entry.Algorithm)
}
