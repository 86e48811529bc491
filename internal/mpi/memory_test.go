package mpi

import (
	"context"
	"testing"

	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

func TestInMemoryRepositoryBlockMatchesOnKeyValue(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	person, _ := repo.InsertPerson(ctx)
	record := &pii.Record{Name: []pii.Name{{Family: "Shepard"}}}
	patient, _ := repo.InsertPatient(ctx, record, &person.ID, nil, nil, nil)

	tuples := blocking.Extract(record, blocking.KeyLastName)
	var vs []blocking.Value
	for _, v := range tuples {
		vs = append(vs, blocking.Value{Key: blocking.KeyLastName, Value: v})
	}

	candidates, err := repo.Block(ctx, vs)
	if err != nil {
		t.Fatalf("Block error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].PatientID != patient.ID {
		t.Fatalf("Block = %+v, want single candidate %d", candidates, patient.ID)
	}
}

func TestInMemoryRepositoryBlockIncludesMissingFieldSibling(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	person, _ := repo.InsertPerson(ctx)
	matched := &pii.Record{Name: []pii.Name{{Family: "Shepard"}}, BirthDate: "1990-01-01"}
	sibling := &pii.Record{Name: []pii.Name{{Family: "Shepard"}}} // no birthdate: missing field
	repo.InsertPatient(ctx, matched, &person.ID, nil, nil, nil)
	repo.InsertPatient(ctx, sibling, &person.ID, nil, nil, nil)

	vs := []blocking.Value{
		{Key: blocking.KeyLastName, Value: "SHEP"},
		{Key: blocking.KeyBirthdate, Value: "1990-01-01"},
	}

	candidates, err := repo.Block(ctx, vs)
	if err != nil {
		t.Fatalf("Block error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Block = %+v, want both direct match and missing-field sibling", candidates)
	}
}

func TestInMemoryRepositoryBlockExcludesConflictingSibling(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	person, _ := repo.InsertPerson(ctx)
	matched := &pii.Record{Name: []pii.Name{{Family: "Shepard"}}, BirthDate: "1990-01-01"}
	conflicting := &pii.Record{Name: []pii.Name{{Family: "Shepard"}}, BirthDate: "2000-05-05"}
	repo.InsertPatient(ctx, matched, &person.ID, nil, nil, nil)
	repo.InsertPatient(ctx, conflicting, &person.ID, nil, nil, nil)

	vs := []blocking.Value{
		{Key: blocking.KeyLastName, Value: "SHEP"},
		{Key: blocking.KeyBirthdate, Value: "1990-01-01"},
	}

	candidates, err := repo.Block(ctx, vs)
	if err != nil {
		t.Fatalf("Block error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Block = %+v, want only the direct match (sibling birthdate conflicts)", candidates)
	}
}

func TestInMemoryRepositoryAttachAndLookup(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	person, _ := repo.InsertPerson(ctx)
	record := &pii.Record{Sex: "M"}
	patient, _ := repo.InsertPatient(ctx, record, nil, nil, nil, nil)

	if err := repo.Attach(ctx, patient.ID, person.ID); err != nil {
		t.Fatalf("Attach error: %v", err)
	}

	fetched, err := repo.GetPatient(ctx, patient.ReferenceID)
	if err != nil {
		t.Fatalf("GetPatient error: %v", err)
	}
	if fetched.PersonID == nil || *fetched.PersonID != person.ID {
		t.Fatalf("PersonID = %v, want %d", fetched.PersonID, person.ID)
	}
}
