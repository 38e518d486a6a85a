package pactfile

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
)

// DanglingRules returns a warning for every body matching rule whose path
// does not select anything in the example JSON body. Such rules usually come
// from a body that was replaced after the rules were added.
func DanglingRules(pact *models.Pact) []string {
	var warnings []string
	check := func(description, part string, body bodies.OptionalBody, rules *matchers.MatchingRules) {
		warnings = append(warnings, danglingRules(description, part, body, rules)...)
	}

	for _, i := range pact.Interactions {
		description := i.Base().Description
		switch interaction := i.(type) {
		case *models.SynchronousHTTP:
			check(description, "request", partBody(&interaction.Request.Part), interaction.Request.MatchingRules)
			check(description, "response", partBody(&interaction.Response.Part), interaction.Response.MatchingRules)
		case *models.AsynchronousMessage:
			check(description, "contents", interaction.Contents.Contents, interaction.Contents.MatchingRules)
		case *models.SynchronousMessage:
			check(description, "request", interaction.Request.Contents, interaction.Request.MatchingRules)
			for n, response := range interaction.Response {
				check(description, fmt.Sprintf("response %d", n), response.Contents, response.MatchingRules)
			}
		}
	}

	for _, warning := range warnings {
		log.Warn(warning)
	}
	return warnings
}

func danglingRules(description, part string, body bodies.OptionalBody, rules *matchers.MatchingRules) []string {
	if rules == nil {
		return nil
	}
	category, ok := rules.Category(matchers.CategoryBody)
	if !ok || category.IsEmpty() {
		return nil
	}
	ct, ok := body.ContentType()
	if !ok || !ct.IsJSON() {
		return nil
	}
	document, ok := body.ToV3JSON()
	if !ok {
		return nil
	}

	var warnings []string
	for _, list := range category.Entries() {
		value, err := list.Path.Resolve(document)
		if err == nil {
			if selected, isList := value.([]interface{}); !isList || len(selected) > 0 || list.Path.IsRoot() {
				continue
			}
		}
		warnings = append(warnings, fmt.Sprintf("matching rule path %s does not match anything in the %s body of %q", list.Path, part, description))
	}
	return warnings
}
