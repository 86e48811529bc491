package pii

import "strings"

// FeatureIter returns the sequence of string values a record carries for a
// given feature. Most features return zero or one value; ADDRESS and
// IDENTIFIER can return several.
func FeatureIter(record *Record, feature Feature) []string {
	switch feature {
	case BIRTHDATE:
		return nonEmpty(record.BirthDate)
	case SEX:
		return nonEmpty(record.Sex)
	case FIRST_NAME:
		if len(record.Name) == 0 || len(record.Name[0].Given) == 0 {
			return nil
		}
		return nonEmpty(record.Name[0].Given[0])
	case GIVEN_NAME:
		if len(record.Name) == 0 {
			return nil
		}
		return filterEmpty(record.Name[0].Given)
	case LAST_NAME:
		if len(record.Name) == 0 {
			return nil
		}
		return nonEmpty(record.Name[0].Family)
	case SUFFIX:
		if len(record.Name) == 0 {
			return nil
		}
		return nonEmpty(record.Name[0].Suffix)
	case NAME:
		if len(record.Name) == 0 {
			return nil
		}
		var values []string
		values = append(values, nonEmpty(record.Name[0].Family)...)
		values = append(values, filterEmpty(record.Name[0].Given)...)
		return values
	case ADDRESS:
		var values []string
		for _, a := range record.Address {
			values = append(values, filterEmpty(a.Line)...)
		}
		return values
	case CITY:
		var values []string
		for _, a := range record.Address {
			values = append(values, nonEmpty(a.City)...)
		}
		return values
	case STATE:
		var values []string
		for _, a := range record.Address {
			values = append(values, nonEmpty(a.State)...)
		}
		return values
	case ZIP:
		var values []string
		for _, a := range record.Address {
			values = append(values, nonEmpty(a.PostalCode)...)
		}
		return values
	case COUNTY:
		var values []string
		for _, a := range record.Address {
			values = append(values, nonEmpty(a.County)...)
		}
		return values
	case PHONE:
		return telecomValues(record, "phone")
	case EMAIL:
		return telecomValues(record, "email")
	case TELECOM:
		var values []string
		for _, t := range record.Telecom {
			values = append(values, nonEmpty(t.Value)...)
		}
		return values
	case IDENTIFIER:
		var values []string
		for _, id := range record.Identifiers {
			values = append(values, identifierString(id))
		}
		return values
	default:
		if typeCode, ok := feature.IdentifierType(); ok {
			var values []string
			for _, id := range record.Identifiers {
				if id.Type == typeCode {
					values = append(values, identifierString(id))
				}
			}
			return values
		}
		return nil
	}
}

func identifierString(id Identifier) string {
	return strings.Join([]string{id.Type, id.Authority, id.Value}, "|")
}

func telecomValues(record *Record, system string) []string {
	var values []string
	for _, t := range record.Telecom {
		if t.System == system {
			values = append(values, nonEmpty(t.Value)...)
		}
	}
	return values
}

func nonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

func filterEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
