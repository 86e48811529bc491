// Package blocking derives short deterministic keys from a normalized
// record, used both to persist BlockingValue rows and to query the MPI for
// plausible candidates.
package blocking

import (
	"strings"

	"mpi-linkage/internal/pii"
)

// Key is the closed enumeration of blocking keys. The numeric value is the
// stable identifier persisted in BlockingValue.key_id; it is part of the
// on-disk contract and must never be renumbered.
type Key int

const (
	KeyBirthdate  Key = 1
	KeySex        Key = 3
	KeyZip        Key = 4
	KeyFirstName  Key = 5
	KeyLastName   Key = 6
	KeyAddress    Key = 7
	KeyPhone      Key = 8
	KeyEmail      Key = 9
	KeyIdentifier Key = 10
)

// Feature reports which pii.Feature a blocking key reads from.
func (k Key) Feature() pii.Feature {
	switch k {
	case KeyBirthdate:
		return pii.BIRTHDATE
	case KeySex:
		return pii.SEX
	case KeyZip:
		return pii.ZIP
	case KeyFirstName:
		return pii.FIRST_NAME
	case KeyLastName:
		return pii.LAST_NAME
	case KeyAddress:
		return pii.ADDRESS
	case KeyPhone:
		return pii.PHONE
	case KeyEmail:
		return pii.EMAIL
	case KeyIdentifier:
		return pii.IDENTIFIER
	default:
		return ""
	}
}

// Extract returns every BlockingValue string the record yields for key k. A
// field shorter than the key requires is dropped, not padded. A
// multi-valued feature yields multiple values for the same key.
func Extract(record *pii.Record, k Key) []string {
	switch k {
	case KeyBirthdate:
		return oneOrNone(record.BirthDate)
	case KeySex:
		return oneOrNone(record.Sex)
	case KeyZip:
		var values []string
		for _, v := range pii.FeatureIter(record, pii.ZIP) {
			if len(v) >= 5 {
				values = append(values, v[:5])
			}
		}
		return values
	case KeyFirstName:
		return prefixUpper(pii.FeatureIter(record, pii.FIRST_NAME), 4)
	case KeyLastName:
		return prefixUpper(pii.FeatureIter(record, pii.LAST_NAME), 4)
	case KeyAddress:
		return prefixUpper(pii.FeatureIter(record, pii.ADDRESS), 4)
	case KeyPhone:
		var values []string
		for _, v := range pii.FeatureIter(record, pii.PHONE) {
			if len(v) >= 4 {
				values = append(values, v[len(v)-4:])
			}
		}
		return values
	case KeyEmail:
		var values []string
		for _, v := range pii.FeatureIter(record, pii.EMAIL) {
			if len(v) >= 4 {
				values = append(values, strings.ToLower(v[:4]))
			}
		}
		return values
	case KeyIdentifier:
		var values []string
		for _, id := range record.Identifiers {
			values = append(values, IdentifierBlockingValue(id))
		}
		return values
	default:
		return nil
	}
}

// IdentifierBlockingValue builds the denormalized BlockingValue for an
// identifier triple: "<type>:<first-2-of-authority>:<last-4-of-value>".
func IdentifierBlockingValue(id pii.Identifier) string {
	authority := id.Authority
	if len(authority) > 2 {
		authority = authority[:2]
	}
	value := id.Value
	if len(value) > 4 {
		value = value[len(value)-4:]
	}
	return id.Type + ":" + authority + ":" + value
}

func oneOrNone(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

func prefixUpper(values []string, n int) []string {
	var out []string
	for _, v := range values {
		if len(v) < n {
			continue
		}
		out = append(out, strings.ToUpper(v[:n]))
	}
	return out
}
