package mpi

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

// ErrNotFound is returned by the single-entity lookups when no row matches.
var ErrNotFound = errors.New("mpi: not found")

// Repository is the MPI's external contract (§4.4). Each write operation
// (InsertPatient, InsertPerson, Attach) is atomic on its own; the
// InsertPerson and InsertPatient calls one linkage request makes are
// separate operations and do not share a transaction.
type Repository interface {
	// InsertPatient creates a Patient row and recomputes+inserts its
	// BlockingValue rows from the cleaned record. personID is nil for an
	// unattached Patient.
	InsertPatient(ctx context.Context, record *pii.Record, personID *int64, externalPatientID, externalPersonID, externalPersonSource *string) (*Patient, error)

	// InsertPerson creates a new, empty cluster.
	InsertPerson(ctx context.Context) (*Person, error)

	// Attach sets patient.person_id = personID.
	Attach(ctx context.Context, patientID, personID int64) error

	// Block implements algorithm.Blocker: every Patient whose
	// BlockingValue rows match at least one value per key in tuples, plus
	// sibling Patients sharing a Person with those matches provided each
	// sibling is either missing the key entirely or shares the value.
	Block(ctx context.Context, tuples []blocking.Value) ([]algorithm.PatientCandidate, error)

	GetPatientsByPerson(ctx context.Context, personID int64) ([]*Patient, error)
	GetPerson(ctx context.Context, referenceID uuid.UUID) (*Person, error)
	GetPatient(ctx context.Context, referenceID uuid.UUID) (*Patient, error)

	// GetPersonByID resolves a Person's external reference UUID from its
	// internal id, used to build the POST /link response's
	// person_reference_id fields from algorithm.Decision/ClusterResult,
	// which only carry internal ids.
	GetPersonByID(ctx context.Context, id int64) (*Person, error)
}
