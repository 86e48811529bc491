package mpi

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

// InMemoryRepository is a Repository test double: a single mutex-guarded
// map, good enough to exercise the Pass Evaluator / Driver without a real
// Postgres instance. Not used in production wiring.
type InMemoryRepository struct {
	mu sync.Mutex

	nextPatientID int64
	nextPersonID  int64

	patients map[int64]*Patient
	persons  map[int64]*Person
	index    map[blocking.Key]map[string][]int64 // key -> value -> patient IDs
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[int64]*Patient),
		persons:  make(map[int64]*Person),
		index:    make(map[blocking.Key]map[string][]int64),
	}
}

func (r *InMemoryRepository) InsertPatient(ctx context.Context, record *pii.Record, personID *int64, externalPatientID, externalPersonID, externalPersonSource *string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextPatientID++
	patient := &Patient{
		ID:                   r.nextPatientID,
		ReferenceID:          uuid.New(),
		PersonID:             personID,
		Record:               record,
		ExternalPatientID:    externalPatientID,
		ExternalPersonID:     externalPersonID,
		ExternalPersonSource: externalPersonSource,
	}
	r.patients[patient.ID] = patient

	for _, v := range blocking.ExtractAll(record) {
		if r.index[v.Key] == nil {
			r.index[v.Key] = make(map[string][]int64)
		}
		r.index[v.Key][v.Value] = append(r.index[v.Key][v.Value], patient.ID)
	}

	return patient, nil
}

func (r *InMemoryRepository) InsertPerson(ctx context.Context) (*Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextPersonID++
	person := &Person{ID: r.nextPersonID, ReferenceID: uuid.New()}
	r.persons[person.ID] = person
	return person, nil
}

func (r *InMemoryRepository) Attach(ctx context.Context, patientID, personID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	id := personID
	patient.PersonID = &id
	return nil
}

// Block implements the §4.4 contract: a Patient is a direct match only if
// it has a BlockingValue hit for every distinct requested key (a hit on any
// one of that key's candidate values is enough), plus sibling Patients from
// the same Person provided each sibling is missing the key entirely or
// shares the value.
func (r *InMemoryRepository) Block(ctx context.Context, tuples []blocking.Value) ([]algorithm.PatientCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(tuples) == 0 {
		return nil, nil
	}

	byKey := make(map[blocking.Key][]blocking.Value)
	for _, t := range tuples {
		byKey[t.Key] = append(byKey[t.Key], t)
	}

	var matchedIDs map[int64]bool
	for key, group := range byKey {
		hits := make(map[int64]bool)
		for _, t := range group {
			for _, id := range r.index[key][t.Value] {
				hits[id] = true
			}
		}
		if matchedIDs == nil {
			matchedIDs = hits
			continue
		}
		for id := range matchedIDs {
			if !hits[id] {
				delete(matchedIDs, id)
			}
		}
	}

	personIDs := make(map[int64]bool)
	for id := range matchedIDs {
		if p := r.patients[id]; p != nil && p.PersonID != nil {
			personIDs[*p.PersonID] = true
		}
	}

	included := make(map[int64]bool)
	for id, patient := range r.patients {
		if matchedIDs[id] {
			included[id] = true
			continue
		}
		if patient.PersonID == nil || !personIDs[*patient.PersonID] {
			continue
		}
		if r.siblingCompatible(patient, tuples) {
			included[id] = true
		}
	}

	var ids []int64
	for id := range included {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := r.patients[ids[i]].PersonID, r.patients[ids[j]].PersonID
		var personI, personJ int64
		if pi != nil {
			personI = *pi
		}
		if pj != nil {
			personJ = *pj
		}
		if personI != personJ {
			return personI < personJ
		}
		return ids[i] < ids[j]
	})

	candidates := make([]algorithm.PatientCandidate, 0, len(ids))
	for _, id := range ids {
		p := r.patients[id]
		var personID int64
		if p.PersonID != nil {
			personID = *p.PersonID
		}
		candidates = append(candidates, algorithm.PatientCandidate{
			PatientID: p.ID,
			PersonID:  personID,
			Record:    p.Record,
		})
	}
	return candidates, nil
}

// siblingCompatible reports whether patient, which did not directly match
// every tuple, is still eligible as a sibling: for each requested key it
// either has no BlockingValue at all, or its value matches the requested
// one.
func (r *InMemoryRepository) siblingCompatible(patient *Patient, tuples []blocking.Value) bool {
	byKey := make(map[blocking.Key][]string)
	for _, v := range blocking.ExtractAll(patient.Record) {
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

func (r *InMemoryRepository) GetPatientsByPerson(ctx context.Context, personID int64) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Patient
	for _, p := range r.patients {
		if p.PersonID != nil && *p.PersonID == personID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetPersonByID(ctx context.Context, id int64) (*Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	person, ok := r.persons[id]
	if !ok {
		return nil, ErrNotFound
	}
	return person, nil
}

func (r *InMemoryRepository) GetPerson(ctx context.Context, referenceID uuid.UUID) (*Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.persons {
		if p.ReferenceID == referenceID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) GetPatient(ctx context.Context, referenceID uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patients {
		if p.ReferenceID == referenceID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}
