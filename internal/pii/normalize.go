package pii

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidBirthdate is returned by Normalize when the birth date is
// unparseable or in the future. Callers map this to the invalid-input error
// kind.
var ErrInvalidBirthdate = errors.New("invalid or future birthdate")

var birthdateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
}

var nonDigits = regexp.MustCompile(`\D`)

// streetSuffixes maps full USPS suffix tokens to their standard abbreviation.
// Matching is case-insensitive against the trailing token of a street line.
var streetSuffixes = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AV",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"ROAD":      "RD",
	"LANE":      "LN",
	"COURT":     "CT",
	"PLACE":     "PL",
	"CIRCLE":    "CIR",
	"TERRACE":   "TER",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"SQUARE":    "SQ",
	"TRAIL":     "TRL",
	"WAY":       "WAY",
}

// stateNames maps full US state names (upper-cased) to their 2-letter code.
var stateNames = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID",
	"ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS",
	"KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS",
	"MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK",
	"OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC",
	"SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT",
	"VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV",
	"WISCONSIN": "WI", "WYOMING": "WY",
}

var validStateCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateNames))
	for _, code := range stateNames {
		m[code] = true
	}
	return m
}()

// Normalize canonicalizes a raw payload into a Record: dates, sex codes,
// phone digits, address suffixes, ZIP to 5, state to 2-letter.
func Normalize(raw *Raw) (*Record, error) {
	record := &Record{}

	if raw.BirthDate != "" {
		bd, err := normalizeBirthDate(raw.BirthDate)
		if err != nil {
			return nil, err
		}
		record.BirthDate = bd
	}

	record.Sex = normalizeSex(raw.Sex)

	for _, n := range raw.Name {
		record.Name = append(record.Name, Name{
			Family: strings.TrimSpace(n.Family),
			Given:  trimAll(n.Given),
			Suffix: strings.TrimSpace(n.Suffix),
		})
	}

	for _, a := range raw.Address {
		record.Address = append(record.Address, Address{
			Line:       normalizeStreetLines(a.Line),
			City:       strings.TrimSpace(a.City),
			State:      normalizeState(a.State),
			PostalCode: normalizeZip(a.PostalCode),
			County:     strings.TrimSpace(a.County),
		})
	}

	for _, t := range raw.Telecom {
		system := strings.ToLower(strings.TrimSpace(t.System))
		value := t.Value
		if system == "phone" {
			value = normalizePhone(value)
		} else {
			value = strings.TrimSpace(value)
		}
		record.Telecom = append(record.Telecom, Telecom{System: system, Value: value})
	}

	record.Identifiers = append(record.Identifiers, raw.Identifiers...)

	return record, nil
}

func normalizeBirthDate(raw string) (string, error) {
	var parsed time.Time
	var err error
	ok := false
	for _, layout := range birthdateLayouts {
		parsed, err = time.Parse(layout, raw)
		if err == nil {
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidBirthdate, raw)
	}

	// Two-digit years: 19YY if YY > current-year-YY, else 20YY. time.Parse's
	// "06" layout already applies Go's own pivot (69/68 split); re-derive
	// per spec when the source layout was the 2-digit one.
	if strings.Count(raw, "/") == 2 && len(raw) <= 8 {
		parts := strings.Split(raw, "/")
		if len(parts[2]) == 2 {
			yy, _ := strconv.Atoi(parts[2])
			nowYY := time.Now().Year() % 100
			century := 2000
			if yy > nowYY {
				century = 1900
			}
			parsed = time.Date(century+yy, parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	if parsed.After(time.Now()) {
		return "", fmt.Errorf("%w: %q is in the future", ErrInvalidBirthdate, raw)
	}

	return parsed.Format("2006-01-02"), nil
}

func normalizeSex(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "1":
		return "M"
	case "female", "f", "2":
		return "F"
	default:
		return ""
	}
}

func normalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	// Strip a leading US country code (1) so only the national number remains.
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func normalizeZip(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) >= 5 {
		return digits[:5]
	}
	return digits
}

func normalizeState(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 2 && validStateCodes[trimmed] {
		return trimmed
	}
	if code, ok := stateNames[trimmed]; ok {
		return code
	}
	return ""
}

func normalizeStreetLines(lines []string) []string {
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		normalized = append(normalized, normalizeStreetSuffix(line))
	}
	return normalized
}

func normalizeStreetSuffix(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return line
	}
	tokens := strings.Fields(line)
	last := strings.ToUpper(strings.Trim(tokens[len(tokens)-1], "."))
	if abbr, ok := streetSuffixes[last]; ok {
		tokens[len(tokens)-1] = abbr
	}
	return strings.Join(tokens, " ")
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		trimmed = append(trimmed, strings.TrimSpace(v))
	}
	return trimmed
}
