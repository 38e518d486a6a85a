package pactffi

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/contenttypes"
	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/integration"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

const contentTypeHeader = "Content-Type"

// WithBody sets the request or response body. The content type defaults to
// text/plain and is only used when the part has no Content-Type header. JSON
// and XML bodies may contain matcher annotations, which replace any body
// rules and generators already on the part.
func WithBody(h handles.InteractionHandle, part InteractionPart, contentType, body string) (ok bool) {
	defer catchPanic("with_body", func() { ok = false })

	if contentType == "" {
		contentType = "text/plain"
	}
	return mutateHTTP("with_body", h, func(i *models.SynchronousHTTP) error {
		p := selectPart(i, part)
		if !p.HasHeader(contentTypeHeader) {
			p.SetHeader(contentTypeHeader, 0, contentType)
		}
		ct, ok := p.HeaderContentType()
		if !ok {
			ct = contenttypes.Default()
		}

		processed, err := processBody(ct, []byte(body), p.MatchingRules, p.Generators)
		if err != nil {
			return err
		}
		p.Body = processed
		return nil
	})
}

// processBody builds a body of type ct, extracting the annotations of JSON
// and XML bodies into rules and generators. The body category of rules and
// generators is replaced only when processing succeeds.
func processBody(ct contenttypes.ContentType, body []byte, rules *matchers.MatchingRules, generators *matchers.Generators) (bodies.OptionalBody, error) {
	category := matchers.NewCategory(matchers.CategoryBody)
	extracted := matchers.NewGenerators()

	var result bodies.OptionalBody
	switch {
	case ct.IsJSON():
		processed := integration.ProcessJSON(string(body), category, extracted)
		if processed == "null" {
			result = bodies.NullBody()
		} else {
			result = bodies.PresentBody([]byte(processed), &ct, bodies.HintUnset)
		}
	case ct.IsXML():
		processed, err := integration.ProcessXML(string(body), category, extracted)
		if err != nil {
			return bodies.OptionalBody{}, errors.Wrap(err, "unable to generate XML body")
		}
		result = bodies.PresentBody(processed, &ct, bodies.HintUnset)
	default:
		result = bodies.PresentBody(body, &ct, bodies.HintUnset)
	}

	rules.SetCategory(category)
	generators.ReplaceCategory(matchers.CategoryBody, extracted)
	return result, nil
}

// WithBinaryFile sets a binary body with a content type matching rule. A nil
// body is absent and an empty one is empty. The Content-Type header defaults
// to application/octet-stream.
func WithBinaryFile(h handles.InteractionHandle, part InteractionPart, contentType string, body []byte) (ok bool) {
	defer catchPanic("with_binary_file", func() { ok = false })

	if !validString("content type", contentType) {
		log.Warn("with_binary_file: content type is not valid (empty or not UTF-8)")
		setError("with_binary_file: content type is not valid")
		return false
	}
	return mutateHTTP("with_binary_file", h, func(i *models.SynchronousHTTP) error {
		p := selectPart(i, part)
		p.Body = bodies.New(body, contentType, true)
		if !p.HasHeader(contentTypeHeader) {
			p.SetHeader(contentTypeHeader, 0, contenttypes.OctetStream.String())
		}

		category := matchers.NewCategory(matchers.CategoryBody)
		category.AddRule(paths.Root(), matchers.NewRule("contentType", map[string]interface{}{"value": contentType}), matchers.And)
		p.MatchingRules.SetCategory(category)
		p.Generators.ClearCategory(matchers.CategoryBody)
		return nil
	})
}
