package api

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/country"
	"github.com/hazyhaar/touchstone-cleaner/pkg/ids"
	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
	"github.com/hazyhaar/touchstone-cleaner/pkg/rules"
)

var (
	ErrBadRequest = eris.New("bad request")
	ErrTooMany    = eris.New("too many names in one request")
)

// Shared request/response types used by both HTTP and MCP transports.

type cleanReq struct {
	Names    []string
	Country  string
	Language string
	Merge    bool
}

type cleanResult struct {
	Input string  `json:"input"`
	Clean *string `json:"clean"`
}

type cleanResponse struct {
	LegalForms names.Selection `json:"legal_forms"`
	Results    []cleanResult   `json:"results"`
}

type legalFormsReq struct {
	Country  string
	Language string
	Merge    bool
}

type manifestResponse struct {
	Default   names.Selection     `json:"default"`
	Countries map[string][]string `json:"countries"`
}

type dictionaryResponse struct {
	Country  string           `json:"country"`
	Language string           `json:"language,omitempty"`
	Merged   bool             `json:"merged"`
	Terms    []legalform.Term `json:"terms"`
}

type ruleInfo struct {
	Name        string `json:"name"`
	Replacement string `json:"replacement"`
	Pattern     string `json:"pattern,omitempty"`
	Ref         string `json:"ref,omitempty"`
	MoveToFront bool   `json:"move_to_front,omitempty"`
}

type rulesResponse struct {
	Default []string   `json:"default"`
	Rules   []ruleInfo `json:"rules"`
}

type countryReq struct {
	Value string
}

type idReq struct {
	Type string
	ID   string
}

type idResponse struct {
	Type  string `json:"type"`
	Input string `json:"input"`
	ids.Result
}

// Service holds what the endpoints read. The normalizer's active dictionary is
// never changed by a request; per-request selections go through CleanWith.
type Service struct {
	Normalizer *names.Normalizer
	Resolver   country.Resolver
	MaxBatch   int
}

func (s *Service) store() *legalform.Store { return s.Normalizer.Store() }

func cleanEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*cleanReq)
		if len(req.Names) == 0 {
			return nil, eris.Wrap(ErrBadRequest, "names array is empty")
		}
		if s.MaxBatch > 0 && len(req.Names) > s.MaxBatch {
			return nil, eris.Wrapf(ErrTooMany, "max %d, got %d", s.MaxBatch, len(req.Names))
		}

		dict, sel := s.Normalizer.ActiveLegalForms()
		if req.Country != "" {
			d, err := s.store().Select(req.Country, req.Language, req.Merge)
			if err != nil {
				return nil, err
			}
			dict = d
			sel = names.Selection{Country: d.Country, Language: req.Language, Merge: req.Merge}
		}

		resp := cleanResponse{LegalForms: sel, Results: make([]cleanResult, len(req.Names))}
		for i, name := range req.Names {
			clean, ok, err := s.Normalizer.CleanWith(dict, name)
			if err != nil {
				return nil, eris.Wrapf(ErrBadRequest, "name %d: %v", i, err)
			}
			resp.Results[i].Input = name
			if ok {
				resp.Results[i].Clean = &clean
			}
		}
		return resp, nil
	}
}

func listLegalFormsEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		_, sel := s.Normalizer.ActiveLegalForms()
		return manifestResponse{Default: sel, Countries: s.store().Manifest()}, nil
	}
}

func legalFormsEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*legalFormsReq)
		d, err := s.store().Select(req.Country, req.Language, req.Merge)
		if err != nil {
			return nil, err
		}
		return dictionaryResponse{Country: d.Country, Language: d.Language, Merged: d.Merged, Terms: d.Terms()}, nil
	}
}

func rulesEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		dict := s.Normalizer.Config().Rules
		if dict == nil {
			dict = rules.Builtin()
		}
		resp := rulesResponse{Default: rules.DefaultRules()}
		for _, name := range dict.Names() {
			r, _ := dict.Get(name)
			resp.Rules = append(resp.Rules, ruleInfo{
				Name:        r.Name,
				Replacement: r.Replacement,
				Pattern:     r.Pattern.Regex,
				Ref:         r.Pattern.Ref,
				MoveToFront: r.MoveToFront,
			})
		}
		return resp, nil
	}
}

func countryEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*countryReq)
		r := s.Resolver
		r.Mode = cleaning.Strict
		return r.Resolve(req.Value)
	}
}

func idEndpoint(_ *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*idReq)
		typ, err := ids.ParseType(req.Type)
		if err != nil {
			return nil, err
		}
		c := ids.NewCleaner(typ)
		c.Mode = cleaning.Strict
		res, err := c.Clean(req.ID)
		if err != nil {
			return nil, eris.Wrapf(ErrBadRequest, "%v", err)
		}
		return idResponse{Type: typ.String(), Input: req.ID, Result: *res}, nil
	}
}

// isNotFound reports errors that mean the requested resource does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, legalform.ErrCountryNotSupported) ||
		errors.Is(err, legalform.ErrLanguageNotSupported) ||
		errors.Is(err, country.ErrCountryNotFound)
}

// isBadRequest reports errors caused by the caller's input.
func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrTooMany) ||
		errors.Is(err, ids.ErrTypeNotSupported) ||
		errors.Is(err, country.ErrInputTooShort) ||
		errors.Is(err, country.ErrNotAString)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
