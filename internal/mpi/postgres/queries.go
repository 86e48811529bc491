package postgres

// Queries holds every SQL statement the MPI repository issues, grouped the
// way the reference domain module groups its query constants.
var Queries = struct {
	InsertPerson        string
	InsertPatient        string
	InsertBlockingValue  string
	AttachPatient        string
	BlockByKeyValue      string
	SiblingsByPerson     string
	GetPatientsByPerson  string
	GetPersonByReference string
	GetPatientByReference string
	GetPersonByID        string
}{
	InsertPerson: `
		INSERT INTO mpi_person DEFAULT VALUES
		RETURNING id, reference_id;
	`,

	InsertPatient: `
		INSERT INTO mpi_patient (
			person_id, record, external_patient_id, external_person_id, external_person_source
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reference_id;
	`,

	InsertBlockingValue: `
		INSERT INTO mpi_blocking_value (patient_id, key_id, value)
		VALUES ($1, $2, $3);
	`,

	AttachPatient: `
		UPDATE mpi_patient SET person_id = $2 WHERE id = $1;
	`,

	// BlockByKeyValue finds every Patient with a direct BlockingValue hit
	// for every distinct requested key (§4.4: AND across keys, OR within a
	// key's candidate values) — $3 is the number of distinct keys in $1.
	// The candidate set is widened to full Person clusters in Go (see
	// Repository.Block), not in SQL, so the sibling "missing or matching"
	// rule stays testable without a correlated subquery per key.
	BlockByKeyValue: `
		SELECT p.id, p.person_id, p.record
		FROM mpi_patient p
		JOIN mpi_blocking_value bv ON bv.patient_id = p.id
		WHERE (bv.key_id, bv.value) IN (SELECT * FROM unnest($1::smallint[], $2::text[]))
		GROUP BY p.id, p.person_id, p.record
		HAVING COUNT(DISTINCT bv.key_id) = $3
		ORDER BY p.person_id NULLS LAST, p.id;
	`,

	SiblingsByPerson: `
		SELECT p.id, p.person_id, p.record
		FROM mpi_patient p
		WHERE p.person_id = ANY($1::bigint[])
		ORDER BY p.person_id, p.id;
	`,

	GetPatientsByPerson: `
		SELECT id, reference_id, person_id, record, external_patient_id, external_person_id, external_person_source
		FROM mpi_patient
		WHERE person_id = $1
		ORDER BY id;
	`,

	GetPersonByReference: `
		SELECT id, reference_id FROM mpi_person WHERE reference_id = $1;
	`,

	GetPatientByReference: `
		SELECT id, reference_id, person_id, record, external_patient_id, external_person_id, external_person_source
		FROM mpi_patient WHERE reference_id = $1;
	`,

	GetPersonByID: `
		SELECT id, reference_id FROM mpi_person WHERE id = $1;
	`,
}
