package blocking

import "mpi-linkage/internal/pii"

// AllKeys lists every blocking key in the closed enumeration, in stable
// numeric order.
var AllKeys = []Key{
	KeyBirthdate, KeySex, KeyZip, KeyFirstName, KeyLastName,
	KeyAddress, KeyPhone, KeyEmail, KeyIdentifier,
}

// Value is one (key, value) pair extracted from a record — the shape
// persisted as a BlockingValue row.
type Value struct {
	Key   Key
	Value string
}

// ExtractAll returns every BlockingValue the record yields across all nine
// keys, used when inserting a Patient.
func ExtractAll(record *pii.Record) []Value {
	var values []Value
	for _, k := range AllKeys {
		for _, v := range Extract(record, k) {
			values = append(values, Value{Key: k, Value: v})
		}
	}
	return values
}
