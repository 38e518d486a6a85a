// Package pactfile renders pact documents in the V1 to V4 file formats and
// writes them to disk.
package pactfile

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
)

// Render converts a pact into the JSON document for the given specification
// version.
func Render(pact *models.Pact, spec models.PactSpecification) (map[string]interface{}, error) {
	doc := map[string]interface{}{
		"consumer": map[string]interface{}{"name": pact.Consumer.Name},
		"provider": map[string]interface{}{"name": pact.Provider.Name},
		"metadata": renderMetadata(pact, spec),
	}

	switch spec {
	case models.SpecV4:
		interactions := make([]interface{}, 0, len(pact.Interactions))
		for _, i := range pact.Interactions {
			interactions = append(interactions, renderV4(i))
		}
		doc["interactions"] = interactions
	case models.SpecV3, models.SpecUnknown:
		key, interactions, err := renderV3(pact)
		if err != nil {
			return nil, err
		}
		doc[key] = interactions
	default:
		interactions, err := renderLegacy(pact, spec)
		if err != nil {
			return nil, err
		}
		doc["interactions"] = interactions
	}
	return doc, nil
}

func renderMetadata(pact *models.Pact, spec models.PactSpecification) map[string]interface{} {
	metadata := make(map[string]interface{}, len(pact.Metadata)+1)
	for k, v := range pact.Metadata {
		metadata[k] = v
	}
	metadata["pactSpecification"] = map[string]interface{}{"version": spec.VersionString()}
	return metadata
}

func renderV4(i models.Interaction) map[string]interface{} {
	base := i.Base()
	result := map[string]interface{}{
		"type":        i.Kind().String(),
		"description": base.Description,
		"pending":     base.Pending,
	}
	if len(base.ProviderStates) > 0 {
		result["providerStates"] = renderProviderStates(base.ProviderStates)
	}
	if len(base.Comments) > 0 {
		result["comments"] = base.Comments
	}

	switch interaction := i.(type) {
	case *models.SynchronousHTTP:
		request := map[string]interface{}{
			"method": strings.ToUpper(interaction.Request.Method),
			"path":   interaction.Request.Path,
		}
		if len(interaction.Request.Query) > 0 {
			request["query"] = interaction.Request.Query
		}
		renderV4Part(request, &interaction.Request.Part)
		response := map[string]interface{}{"status": interaction.Response.Status}
		renderV4Part(response, &interaction.Response.Part)
		result["request"] = request
		result["response"] = response
	case *models.AsynchronousMessage:
		renderV4Contents(result, interaction.Contents)
	case *models.SynchronousMessage:
		request := map[string]interface{}{}
		renderV4Contents(request, interaction.Request)
		responses := make([]interface{}, 0, len(interaction.Response))
		for _, contents := range interaction.Response {
			response := map[string]interface{}{}
			renderV4Contents(response, contents)
			responses = append(responses, response)
		}
		result["request"] = request
		result["response"] = responses
	}
	return result
}

func renderV4Part(into map[string]interface{}, part *models.Part) {
	if len(part.Headers) > 0 {
		into["headers"] = part.Headers
	}
	if body, ok := partBody(part).ToV4JSON(); ok {
		into["body"] = body
	}
	renderRules(into, part.MatchingRules, part.Generators)
}

func renderV4Contents(into map[string]interface{}, contents models.MessageContents) {
	if body, ok := contents.Contents.ToV4JSON(); ok {
		into["contents"] = body
	}
	if len(contents.Metadata) > 0 {
		into["metadata"] = contents.Metadata
	}
	renderRules(into, contents.MatchingRules, contents.Generators)
}

func renderRules(into map[string]interface{}, rules *matchers.MatchingRules, generators *matchers.Generators) {
	if rules != nil && !rules.IsEmpty() {
		into["matchingRules"] = rules.ToJSON()
	}
	if generators != nil && !generators.IsEmpty() {
		into["generators"] = generators.ToJSON()
	}
}

// partBody returns the body with the content type from the headers when the
// body does not carry one.
func partBody(part *models.Part) bodies.OptionalBody {
	if _, ok := part.Body.ContentType(); ok {
		return part.Body
	}
	if ct, ok := part.ContentType(); ok {
		return part.Body.WithContentType(ct)
	}
	return part.Body
}

func renderProviderStates(states []models.ProviderState) []interface{} {
	result := make([]interface{}, 0, len(states))
	for _, state := range states {
		result = append(result, state.ToJSON())
	}
	return result
}

// renderV3 returns either "interactions" or "messages" since a V3 file can
// only hold one kind.
func renderV3(pact *models.Pact) (string, []interface{}, error) {
	if pact.HasMessages() && pact.HasHTTP() {
		return "", nil, errors.New("a V3 pact can not contain both HTTP and message interactions, use V4")
	}

	result := make([]interface{}, 0, len(pact.Interactions))
	key := "interactions"
	for _, i := range pact.Interactions {
		switch interaction := i.(type) {
		case *models.SynchronousHTTP:
			result = append(result, renderV3HTTP(interaction))
		case *models.AsynchronousMessage:
			key = "messages"
			result = append(result, renderV3Message(interaction))
		default:
			return "", nil, errors.Errorf("%s interactions require a V4 pact", i.Kind().TypeOf())
		}
	}
	return key, result, nil
}

func renderV3HTTP(i *models.SynchronousHTTP) map[string]interface{} {
	result := map[string]interface{}{"description": i.Description}
	if len(i.ProviderStates) > 0 {
		result["providerStates"] = renderProviderStates(i.ProviderStates)
	}

	request := map[string]interface{}{
		"method": strings.ToUpper(i.Request.Method),
		"path":   i.Request.Path,
	}
	if len(i.Request.Query) > 0 {
		request["query"] = i.Request.Query
	}
	renderV3Part(request, &i.Request.Part)

	response := map[string]interface{}{"status": i.Response.Status}
	renderV3Part(response, &i.Response.Part)

	result["request"] = request
	result["response"] = response
	return result
}

func renderV3Part(into map[string]interface{}, part *models.Part) {
	if len(part.Headers) > 0 {
		into["headers"] = joinHeaders(part.Headers)
	}
	if body, ok := partBody(part).ToV3JSON(); ok {
		into["body"] = body
	}
	renderRules(into, part.MatchingRules, part.Generators)
}

func renderV3Message(m *models.AsynchronousMessage) map[string]interface{} {
	result := map[string]interface{}{"description": m.Description}
	if len(m.ProviderStates) > 0 {
		result["providerStates"] = renderProviderStates(m.ProviderStates)
	}
	if body, ok := m.Contents.Contents.ToV3JSON(); ok {
		result["contents"] = body
	}
	metadata := map[string]interface{}{}
	for k, v := range m.Contents.Metadata {
		metadata[k] = v
	}
	if ct, ok := m.Contents.Contents.ContentType(); ok {
		if _, set := metadata["contentType"]; !set {
			metadata["contentType"] = ct.String()
		}
	}
	if len(metadata) > 0 {
		result["metadata"] = metadata
	}
	renderRules(result, m.Contents.MatchingRules, m.Contents.Generators)
	return result
}

// renderLegacy renders V1, V1.1 and V2 interactions. Only V2 carries
// matching rules and none of them carry generators.
func renderLegacy(pact *models.Pact, spec models.PactSpecification) ([]interface{}, error) {
	result := make([]interface{}, 0, len(pact.Interactions))
	for _, i := range pact.Interactions {
		interaction, ok := models.AsHTTP(i)
		if !ok {
			return nil, errors.Errorf("%s interactions can not be written to a %s pact", i.Kind().TypeOf(), spec)
		}

		rendered := map[string]interface{}{"description": interaction.Description}
		if len(interaction.ProviderStates) > 0 {
			rendered["providerState"] = interaction.ProviderStates[0].Name
		}

		request := map[string]interface{}{
			"method": strings.ToUpper(interaction.Request.Method),
			"path":   interaction.Request.Path,
		}
		if len(interaction.Request.Query) > 0 {
			request["query"] = queryString(interaction.Request.Query)
		}
		renderLegacyPart(request, &interaction.Request.Part, spec)

		response := map[string]interface{}{"status": interaction.Response.Status}
		renderLegacyPart(response, &interaction.Response.Part, spec)

		rendered["request"] = request
		rendered["response"] = response
		result = append(result, rendered)
	}
	return result, nil
}

func renderLegacyPart(into map[string]interface{}, part *models.Part, spec models.PactSpecification) {
	if len(part.Headers) > 0 {
		into["headers"] = joinHeaders(part.Headers)
	}
	if body, ok := partBody(part).ToV3JSON(); ok {
		into["body"] = body
	}
	if spec == models.SpecV2 && part.MatchingRules != nil {
		if rules := part.MatchingRules.ToV2JSON(); len(rules) > 0 {
			into["matchingRules"] = rules
		}
	}
}

func joinHeaders(headers map[string][]string) map[string]interface{} {
	result := make(map[string]interface{}, len(headers))
	for name, values := range headers {
		result[name] = strings.Join(values, ", ")
	}
	return result
}

func queryString(query map[string][]string) string {
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		for _, value := range query[name] {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(value))
		}
	}
	return strings.Join(parts, "&")
}

// RenderMessage renders a single message the way it appears in a pact file
// of the given version.
func RenderMessage(m *models.AsynchronousMessage, spec models.PactSpecification) map[string]interface{} {
	if spec == models.SpecV4 {
		return renderV4(m)
	}
	return renderV3Message(m)
}
