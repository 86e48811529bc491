// Package http is the Gin controller for the linkage core's one
// core-facing call, POST /link (§6), plus the algorithm upload/lookup
// endpoints (§4.8).
package http

import "mpi-linkage/internal/pii"

// NameRequest mirrors pii.RawName for request binding.
type NameRequest struct {
	Family string   `json:"family"`
	Given  []string `json:"given"`
	Suffix string   `json:"suffix"`
}

// AddressRequest mirrors pii.RawAddress for request binding.
type AddressRequest struct {
	Line       []string `json:"line"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postal_code"`
	County     string   `json:"county"`
}

// TelecomRequest mirrors pii.RawTelecom for request binding.
type TelecomRequest struct {
	System string `json:"system" binding:"omitempty,oneof=phone email"`
	Value  string `json:"value"`
}

// IdentifierRequest mirrors pii.Identifier for request binding.
type IdentifierRequest struct {
	Type      string `json:"type"`
	Authority string `json:"authority"`
	Value     string `json:"value" binding:"required_with=Type"`
}

// PIIRecordRequest is the record sub-object of LinkRequest.
type PIIRecordRequest struct {
	BirthDate   string              `json:"birth_date"`
	Sex         string              `json:"sex" binding:"omitempty,oneof=M F male female m f 1 2"`
	Name        []NameRequest       `json:"name"`
	Address     []AddressRequest    `json:"address"`
	Telecom     []TelecomRequest    `json:"telecom"`
	Identifiers []IdentifierRequest `json:"identifiers"`
}

func (r PIIRecordRequest) toRaw() *pii.Raw {
	raw := &pii.Raw{BirthDate: r.BirthDate, Sex: r.Sex}
	for _, n := range r.Name {
		raw.Name = append(raw.Name, pii.RawName{Family: n.Family, Given: n.Given, Suffix: n.Suffix})
	}
	for _, a := range r.Address {
		raw.Address = append(raw.Address, pii.RawAddress{
			Line: a.Line, City: a.City, State: a.State, PostalCode: a.PostalCode, County: a.County,
		})
	}
	for _, t := range r.Telecom {
		raw.Telecom = append(raw.Telecom, pii.RawTelecom{System: t.System, Value: t.Value})
	}
	for _, id := range r.Identifiers {
		raw.Identifiers = append(raw.Identifiers, pii.Identifier{Type: id.Type, Authority: id.Authority, Value: id.Value})
	}
	return raw
}

// LinkRequest is the POST /link request body (§6).
type LinkRequest struct {
	Record                 PIIRecordRequest `json:"record" binding:"required"`
	Algorithm              string           `json:"algorithm"`
	ExternalPersonID       string           `json:"external_person_id"`
	ExternalPersonSource   string           `json:"external_person_source"`
	ExternalPatientID      string           `json:"external_patient_id"`
	IncludeMultipleMatches bool             `json:"include_multiple_matches"`
}

// ClusterMatchResponse is one entry of LinkResponse.Results.
type ClusterMatchResponse struct {
	PersonReferenceID string  `json:"person_reference_id"`
	RMS               float64 `json:"rms"`
	Grade             string  `json:"grade"`
	PassLabel         string  `json:"pass_label"`
}

// LinkResponse is the POST /link response body (§6).
type LinkResponse struct {
	PatientReferenceID string                  `json:"patient_reference_id"`
	PersonReferenceID  *string                 `json:"person_reference_id"`
	MatchGrade         string                  `json:"match_grade"`
	Results            []ClusterMatchResponse  `json:"results"`
}

// LogOddsRequest is one entry of AlgorithmConfigRequest.LogOdds.
type LogOddsRequest struct {
	Feature string  `json:"feature" binding:"required"`
	Value   float64 `json:"value" binding:"gte=0"`
}

// SkipValueRequest is one entry of AlgorithmConfigRequest.SkipValues.
type SkipValueRequest struct {
	Feature string   `json:"feature" binding:"required"`
	Values  []string `json:"values" binding:"required,min=1"`
}

// AdvancedRequest mirrors algorithm.Advanced for request binding.
type AdvancedRequest struct {
	FuzzyMatchThreshold          *float64 `json:"fuzzy_match_threshold"`
	FuzzyMatchMeasure            string   `json:"fuzzy_match_measure"`
	MaxMissingAllowedProportion  *float64 `json:"max_missing_allowed_proportion"`
	MissingFieldPointsProportion *float64 `json:"missing_field_points_proportion"`
}

// EvaluatorRequest is one entry of PassRequest.Evaluators.
type EvaluatorRequest struct {
	Feature             string   `json:"feature" binding:"required"`
	Func                string   `json:"func" binding:"required"`
	FuzzyMatchThreshold *float64 `json:"fuzzy_match_threshold"`
}

// PassRequest is one entry of AlgorithmConfigRequest.Passes.
type PassRequest struct {
	Label              string             `json:"label" binding:"required"`
	BlockingKeys       []int              `json:"blocking_keys" binding:"required,min=1"`
	Evaluators         []EvaluatorRequest `json:"evaluators" binding:"required,min=1"`
	PossibleMatchWindow [2]float64        `json:"possible_match_window"`
}

// AlgorithmConfigRequest is the POST /algorithms request body (§4.8).
type AlgorithmConfigRequest struct {
	Label      string             `json:"label" binding:"required"`
	LogOdds    []LogOddsRequest   `json:"log_odds" binding:"required,min=1"`
	SkipValues []SkipValueRequest `json:"skip_values"`
	Advanced   AdvancedRequest    `json:"advanced"`
	Passes     []PassRequest      `json:"passes" binding:"required,min=1"`
}
