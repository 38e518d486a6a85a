package models

import (
	"strings"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/contenttypes"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
)

// Part is the state shared by an HTTP request and response.
type Part struct {
	Headers       map[string][]string
	Body          bodies.OptionalBody
	MatchingRules *matchers.MatchingRules
	Generators    *matchers.Generators
}

type HTTPRequest struct {
	Part
	Method string
	Path   string
	Query  map[string][]string
}

type HTTPResponse struct {
	Part
	Status int
}

func newPart() Part {
	return Part{
		Body:          bodies.MissingBody(),
		MatchingRules: matchers.NewMatchingRules(),
		Generators:    matchers.NewGenerators(),
	}
}

func (p *Part) headerKey(name string) (string, bool) {
	for key := range p.Headers {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

func (p *Part) HasHeader(name string) bool {
	_, ok := p.headerKey(name)
	return ok
}

func (p *Part) Header(name string) ([]string, bool) {
	key, ok := p.headerKey(name)
	if !ok {
		return nil, false
	}
	return p.Headers[key], true
}

// SetHeader sets the value at index for a header, padding any skipped
// positions with empty strings.
func (p *Part) SetHeader(name string, index int, value string) {
	if p.Headers == nil {
		p.Headers = map[string][]string{}
	}
	key, ok := p.headerKey(name)
	if !ok {
		key = name
	}
	p.Headers[key] = setAt(p.Headers[key], index, value)
}

// ContentType returns the body content type, falling back to the
// Content-Type header.
func (p *Part) ContentType() (contenttypes.ContentType, bool) {
	if ct, ok := p.Body.ContentType(); ok {
		return ct, true
	}
	return p.HeaderContentType()
}

func (p *Part) HeaderContentType() (contenttypes.ContentType, bool) {
	values, ok := p.Header("Content-Type")
	if !ok || len(values) == 0 {
		return contenttypes.ContentType{}, false
	}
	ct, err := contenttypes.Parse(values[0])
	if err != nil {
		return contenttypes.ContentType{}, false
	}
	return ct, true
}

func (p Part) clone() Part {
	return Part{
		Headers:       cloneValues(p.Headers),
		Body:          p.Body,
		MatchingRules: p.MatchingRules.Clone(),
		Generators:    p.Generators.Clone(),
	}
}

// SetQueryParameter sets the value at index for a query parameter, padding
// any skipped positions with empty strings.
func (r *HTTPRequest) SetQueryParameter(name string, index int, value string) {
	if r.Query == nil {
		r.Query = map[string][]string{}
	}
	r.Query[name] = setAt(r.Query[name], index, value)
}

func setAt(values []string, index int, value string) []string {
	for len(values) <= index {
		values = append(values, "")
	}
	values[index] = value
	return values
}

func cloneValues(values map[string][]string) map[string][]string {
	if values == nil {
		return nil
	}
	result := make(map[string][]string, len(values))
	for k, v := range values {
		result[k] = append([]string(nil), v...)
	}
	return result
}
