// Package mpi holds the Master Patient Index data model and the
// repository contract the linkage core runs against (§3, §4.4).
package mpi

import (
	"github.com/google/uuid"

	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

// Person is an opaque cluster id. It carries no attributes beyond its two
// identities: ID is internal, ReferenceID is the stable external UUID.
type Person struct {
	ID          int64
	ReferenceID uuid.UUID
}

// Patient is a point-in-time external record: the normalized PII plus an
// optional Person assignment and optional external hints.
type Patient struct {
	ID                   int64
	ReferenceID          uuid.UUID
	PersonID             *int64 // nil: unattached
	Record               *pii.Record
	ExternalPatientID    *string
	ExternalPersonID     *string
	ExternalPersonSource *string
}

// BlockingValue is one denormalized index row derived from a Patient's
// record: a cache, never authoritative — always recomputable from
// Patient.Record and the fixed Key definitions (§4.3).
type BlockingValue struct {
	PatientID int64
	Key       blocking.Key
	Value     string
}
