package http

import (
	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/compare"
	"mpi-linkage/internal/linkage"
	"mpi-linkage/internal/pii"
)

func toLinkRequest(req LinkRequest) linkage.Request {
	out := linkage.Request{
		Record:                 req.Record.toRaw(),
		Algorithm:              req.Algorithm,
		IncludeMultipleMatches: req.IncludeMultipleMatches,
	}
	if req.ExternalPatientID != "" {
		out.ExternalPatientID = &req.ExternalPatientID
	}
	if req.ExternalPersonID != "" {
		out.ExternalPersonID = &req.ExternalPersonID
	}
	if req.ExternalPersonSource != "" {
		out.ExternalPersonSource = &req.ExternalPersonSource
	}
	return out
}

func toLinkResponse(resp *linkage.Response) LinkResponse {
	out := LinkResponse{
		PatientReferenceID: resp.PatientReferenceID.String(),
		MatchGrade:         string(resp.MatchGrade),
	}
	if resp.PersonReferenceID != nil {
		id := resp.PersonReferenceID.String()
		out.PersonReferenceID = &id
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, ClusterMatchResponse{
			PersonReferenceID: r.PersonReferenceID.String(),
			RMS:               r.RMS,
			Grade:             string(r.Grade),
			PassLabel:         r.PassLabel,
		})
	}
	return out
}

// toConfig converts a validated AlgorithmConfigRequest into an
// algorithm.Config. Feature and blocking-key values are taken verbatim
// (closed enumerations, validated downstream by algorithm.Validate).
func toConfig(req AlgorithmConfigRequest) (*algorithm.Config, error) {
	cfg := &algorithm.Config{Label: req.Label}

	for _, lo := range req.LogOdds {
		cfg.LogOdds = append(cfg.LogOdds, algorithm.LogOdds{Feature: pii.Feature(lo.Feature), Value: lo.Value})
	}

	for _, sv := range req.SkipValues {
		cfg.SkipValues = append(cfg.SkipValues, algorithm.SkipRule{Feature: pii.Feature(sv.Feature), Values: sv.Values})
	}

	cfg.Advanced = algorithm.DefaultAdvanced()
	if req.Advanced.FuzzyMatchThreshold != nil {
		cfg.Advanced.FuzzyMatchThreshold = *req.Advanced.FuzzyMatchThreshold
	}
	if req.Advanced.FuzzyMatchMeasure != "" {
		cfg.Advanced.FuzzyMatchMeasure = compare.Measure(req.Advanced.FuzzyMatchMeasure)
	}
	if req.Advanced.MaxMissingAllowedProportion != nil {
		cfg.Advanced.MaxMissingAllowedProportion = *req.Advanced.MaxMissingAllowedProportion
	}
	if req.Advanced.MissingFieldPointsProportion != nil {
		cfg.Advanced.MissingFieldPointsProportion = *req.Advanced.MissingFieldPointsProportion
	}

	for _, p := range req.Passes {
		pass := algorithm.Pass{
			Label: p.Label,
			Window: algorithm.Window{
				MinRMS:     p.PossibleMatchWindow[0],
				CertainRMS: p.PossibleMatchWindow[1],
			},
		}
		for _, k := range p.BlockingKeys {
			pass.BlockingKeys = append(pass.BlockingKeys, blocking.Key(k))
		}
		for _, ev := range p.Evaluators {
			evaluator := algorithm.Evaluator{
				Feature: pii.Feature(ev.Feature),
				Func:    algorithm.ComparatorFunc(ev.Func),
			}
			if ev.FuzzyMatchThreshold != nil {
				evaluator.FuzzyMatchThreshold = ev.FuzzyMatchThreshold
			}
			pass.Evaluators = append(pass.Evaluators, evaluator)
		}
		cfg.Passes = append(cfg.Passes, pass)
	}

	if err := algorithm.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toConfigResponse(cfg *algorithm.Config) AlgorithmConfigRequest {
	out := AlgorithmConfigRequest{Label: cfg.Label}
	for _, lo := range cfg.LogOdds {
		out.LogOdds = append(out.LogOdds, LogOddsRequest{Feature: string(lo.Feature), Value: lo.Value})
	}
	for _, sv := range cfg.SkipValues {
		out.SkipValues = append(out.SkipValues, SkipValueRequest{Feature: string(sv.Feature), Values: sv.Values})
	}
	fuzzyThreshold := cfg.Advanced.FuzzyMatchThreshold
	maxMissing := cfg.Advanced.MaxMissingAllowedProportion
	missingPoints := cfg.Advanced.MissingFieldPointsProportion
	out.Advanced = AdvancedRequest{
		FuzzyMatchThreshold:          &fuzzyThreshold,
		FuzzyMatchMeasure:            string(cfg.Advanced.FuzzyMatchMeasure),
		MaxMissingAllowedProportion:  &maxMissing,
		MissingFieldPointsProportion: &missingPoints,
	}
	for _, p := range cfg.Passes {
		pass := PassRequest{
			Label:               p.Label,
			PossibleMatchWindow: [2]float64{p.Window.MinRMS, p.Window.CertainRMS},
		}
		for _, k := range p.BlockingKeys {
			pass.BlockingKeys = append(pass.BlockingKeys, int(k))
		}
		for _, ev := range p.Evaluators {
			pass.Evaluators = append(pass.Evaluators, EvaluatorRequest{
				Feature:             string(ev.Feature),
				Func:                string(ev.Func),
				FuzzyMatchThreshold: ev.FuzzyMatchThreshold,
			})
		}
		out.Passes = append(out.Passes, pass)
	}
	return out
}
