// Package clean applies user-configured skip-value rules to a normalized
// record before it is used for blocking or scoring.
package clean

import (
	"path"
	"strings"

	"mpi-linkage/internal/pii"
)

// Rule erases values matching any of Values (case-insensitive Unix glob
// patterns: "*" any run of characters, "?" a single character) from the
// given Feature. Feature "*" applies the rule to every feature.
type Rule struct {
	Feature pii.Feature
	Values  []string
}

// Clean returns a cloned record with every value matching a configured
// skip-value rule erased. The original record is never mutated.
func Clean(record *pii.Record, rules []Rule) *pii.Record {
	cloned := record.Clone()

	for i := range cloned.Name {
		cloned.Name[i].Family = cleanValue(pii.LAST_NAME, cloned.Name[i].Family, rules)
		cloned.Name[i].Family = cleanValue(pii.NAME, cloned.Name[i].Family, rules)
		cloned.Name[i].Suffix = cleanValue(pii.SUFFIX, cloned.Name[i].Suffix, rules)
		for j := range cloned.Name[i].Given {
			cloned.Name[i].Given[j] = cleanValue(pii.FIRST_NAME, cloned.Name[i].Given[j], rules)
			cloned.Name[i].Given[j] = cleanValue(pii.NAME, cloned.Name[i].Given[j], rules)
		}
	}

	cloned.BirthDate = cleanValue(pii.BIRTHDATE, cloned.BirthDate, rules)
	cloned.Sex = cleanValue(pii.SEX, cloned.Sex, rules)

	for i := range cloned.Address {
		for j := range cloned.Address[i].Line {
			cloned.Address[i].Line[j] = cleanValue(pii.ADDRESS, cloned.Address[i].Line[j], rules)
		}
		cloned.Address[i].City = cleanValue(pii.CITY, cloned.Address[i].City, rules)
		cloned.Address[i].State = cleanValue(pii.STATE, cloned.Address[i].State, rules)
		cloned.Address[i].PostalCode = cleanValue(pii.ZIP, cloned.Address[i].PostalCode, rules)
		cloned.Address[i].County = cleanValue(pii.COUNTY, cloned.Address[i].County, rules)
	}

	for i := range cloned.Telecom {
		feature := pii.TELECOM
		switch cloned.Telecom[i].System {
		case "phone":
			feature = pii.PHONE
		case "email":
			feature = pii.EMAIL
		}
		cloned.Telecom[i].Value = cleanValue(feature, cloned.Telecom[i].Value, rules)
	}

	for i := range cloned.Identifiers {
		cloned.Identifiers[i].Value = cleanValue(pii.IDENTIFIER, cloned.Identifiers[i].Value, rules)
	}

	return cloned
}

// cleanValue erases value if any rule for feature (or the wildcard feature
// "*") matches it.
func cleanValue(feature pii.Feature, value string, rules []Rule) string {
	if value == "" {
		return value
	}
	for _, rule := range rules {
		if rule.Feature != feature && rule.Feature != "*" {
			continue
		}
		for _, pattern := range rule.Values {
			if matches(pattern, value) {
				return ""
			}
		}
	}
	return value
}

// matches reports whether value matches pattern under Unix fnmatch
// semantics ("*" any, "?" single), case-insensitively.
func matches(pattern, value string) bool {
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(value))
	if err != nil {
		return false
	}
	return ok
}
