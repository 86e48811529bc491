// Package postgres is the MPI repository's Postgres implementation: SQL
// string constants in queries.go, Go logic here, grounded on the
// reference domain module's services/queries split.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	infrapg "mpi-linkage/internal/infrastructure/database/postgres"
	"mpi-linkage/internal/mpi"
	"mpi-linkage/internal/pii"
)

// Repository is the Postgres-backed mpi.Repository.
type Repository struct {
	db        *infrapg.Client
	txManager *infrapg.TransactionManager
}

// NewRepository wires a Postgres-backed MPI repository over an existing
// connection pool.
func NewRepository(db *infrapg.Client) *Repository {
	return &Repository{db: db, txManager: infrapg.NewTransactionManager(db)}
}

var _ mpi.Repository = (*Repository)(nil)

// InsertPatient persists the Patient row and its derived BlockingValue
// rows inside a single READ COMMITTED transaction (§5): either both
// succeed or neither does.
func (r *Repository) InsertPatient(ctx context.Context, record *pii.Record, personID *int64, externalPatientID, externalPersonID, externalPersonSource *string) (*mpi.Patient, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: marshal record: %w", err)
	}

	var patient mpi.Patient
	err = r.txManager.WithTransactionIsolation(ctx, pgx.ReadCommitted, func(tx *infrapg.Transaction) error {
		err := tx.QueryRow(ctx, Queries.InsertPatient, personID, payload, externalPatientID, externalPersonID, externalPersonSource).
			Scan(&patient.ID, &patient.ReferenceID)
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}

		for _, v := range blocking.ExtractAll(record) {
			if err := tx.Exec(ctx, Queries.InsertBlockingValue, patient.ID, int(v.Key), v.Value); err != nil {
				return fmt.Errorf("insert blocking value: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	patient.PersonID = personID
	patient.Record = record
	patient.ExternalPatientID = externalPatientID
	patient.ExternalPersonID = externalPersonID
	patient.ExternalPersonSource = externalPersonSource
	return &patient, nil
}

func (r *Repository) InsertPerson(ctx context.Context) (*mpi.Person, error) {
	var person mpi.Person
	err := r.txManager.WithTransactionIsolation(ctx, pgx.ReadCommitted, func(tx *infrapg.Transaction) error {
		return tx.QueryRow(ctx, Queries.InsertPerson).Scan(&person.ID, &person.ReferenceID)
	})
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: insert person: %w", err)
	}
	return &person, nil
}

func (r *Repository) Attach(ctx context.Context, patientID, personID int64) error {
	return r.txManager.WithTransactionIsolation(ctx, pgx.ReadCommitted, func(tx *infrapg.Transaction) error {
		return tx.Exec(ctx, Queries.AttachPatient, patientID, personID)
	})
}

// patientRow is the shared scan shape for the patient-plus-record queries.
type patientRow struct {
	id       int64
	personID *int64
	record   *pii.Record
}

func scanPatientRow(rows pgx.Rows) (patientRow, error) {
	var row patientRow
	var payload []byte
	if err := rows.Scan(&row.id, &row.personID, &payload); err != nil {
		return patientRow{}, err
	}
	row.record = &pii.Record{}
	if err := json.Unmarshal(payload, row.record); err != nil {
		return patientRow{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return row, nil
}

// Block runs the §4.4 blocking contract: a direct-hit query requiring a
// BlockingValue match for every distinct requested key, widened, in Go, to
// every sibling Patient of a matched Person that is either missing the
// requested key or shares its value. Blocking reads are read-only and may
// run outside a transaction (§5).
func (r *Repository) Block(ctx context.Context, tuples []blocking.Value) ([]algorithm.PatientCandidate, error) {
	if len(tuples) == 0 {
		return nil, nil
	}

	keyIDs := make([]int16, len(tuples))
	values := make([]string, len(tuples))
	distinctKeys := make(map[blocking.Key]bool)
	for i, t := range tuples {
		keyIDs[i] = int16(t.Key)
		values[i] = t.Value
		distinctKeys[t.Key] = true
	}

	rows, err := r.db.Query(ctx, Queries.BlockByKeyValue, keyIDs, values, len(distinctKeys))
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: block query: %w", err)
	}
	defer rows.Close()

	matched := make(map[int64]patientRow)
	personIDs := make(map[int64]bool)
	for rows.Next() {
		row, err := scanPatientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("mpi/postgres: scan block result: %w", err)
		}
		matched[row.id] = row
		if row.personID != nil {
			personIDs[*row.personID] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	siblings, err := r.siblingsByPerson(ctx, personIDs)
	if err != nil {
		return nil, err
	}

	included := matched
	for _, s := range siblings {
		if _, already := included[s.id]; already {
			continue
		}
		if siblingCompatible(s.record, tuples) {
			included[s.id] = s
		}
	}

	var ids []int64
	for id := range included {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := included[ids[i]], included[ids[j]]
		pa, pb := personOrZero(a.personID), personOrZero(b.personID)
		if pa != pb {
			return pa < pb
		}
		return ids[i] < ids[j]
	})

	candidates := make([]algorithm.PatientCandidate, 0, len(ids))
	for _, id := range ids {
		row := included[id]
		candidates = append(candidates, algorithm.PatientCandidate{
			PatientID: row.id,
			PersonID:  personOrZero(row.personID),
			Record:    row.record,
		})
	}
	return candidates, nil
}

func personOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func (r *Repository) siblingsByPerson(ctx context.Context, personIDs map[int64]bool) ([]patientRow, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(personIDs))
	for id := range personIDs {
		ids = append(ids, id)
	}

	rows, err := r.db.Query(ctx, Queries.SiblingsByPerson, ids)
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: siblings query: %w", err)
	}
	defer rows.Close()

	var result []patientRow
	for rows.Next() {
		row, err := scanPatientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("mpi/postgres: scan sibling: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// siblingCompatible mirrors mpi.InMemoryRepository's rule: a sibling is
// eligible if, for every requested key, it either has no value at all or
// its value matches the requested one.
func siblingCompatible(record *pii.Record, tuples []blocking.Value) bool {
	byKey := make(map[blocking.Key][]string)
	for _, v := range blocking.ExtractAll(record) {
		byKey[v.Key] = append(byKey[v.Key], v.Value)
	}

	for _, t := range tuples {
		values, has := byKey[t.Key]
		if !has {
			continue
		}
		found := false
		for _, v := range values {
			if v == t.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *Repository) GetPatientsByPerson(ctx context.Context, personID int64) ([]*mpi.Patient, error) {
	rows, err := r.db.Query(ctx, Queries.GetPatientsByPerson, personID)
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: get patients by person: %w", err)
	}
	defer rows.Close()

	var patients []*mpi.Patient
	for rows.Next() {
		p, err := scanFullPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *Repository) GetPerson(ctx context.Context, referenceID uuid.UUID) (*mpi.Person, error) {
	var person mpi.Person
	err := r.db.QueryRow(ctx, Queries.GetPersonByReference, referenceID).Scan(&person.ID, &person.ReferenceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mpi.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: get person: %w", err)
	}
	return &person, nil
}

func (r *Repository) GetPatient(ctx context.Context, referenceID uuid.UUID) (*mpi.Patient, error) {
	row := r.db.QueryRow(ctx, Queries.GetPatientByReference, referenceID)
	patient, err := scanFullPatientRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mpi.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: get patient: %w", err)
	}
	return patient, nil
}

func (r *Repository) GetPersonByID(ctx context.Context, id int64) (*mpi.Person, error) {
	var person mpi.Person
	err := r.db.QueryRow(ctx, Queries.GetPersonByID, id).Scan(&person.ID, &person.ReferenceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mpi.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mpi/postgres: get person by id: %w", err)
	}
	return &person, nil
}

func scanFullPatient(rows pgx.Rows) (*mpi.Patient, error) {
	return scanFullPatientRow(rows)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFullPatientRow(row rowScanner) (*mpi.Patient, error) {
	var patient mpi.Patient
	var payload []byte
	if err := row.Scan(
		&patient.ID, &patient.ReferenceID, &patient.PersonID, &payload,
		&patient.ExternalPatientID, &patient.ExternalPersonID, &patient.ExternalPersonSource,
	); err != nil {
		return nil, err
	}
	patient.Record = &pii.Record{}
	if err := json.Unmarshal(payload, patient.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &patient, nil
}
