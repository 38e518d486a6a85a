package pactbuilder

import (
	"encoding/json"

	"github.com/form3tech-oss/pact-builder/internal/app/configuration"
)

type (
	Request       = configuration.PartDefinition
	Response      = configuration.PartDefinition
	Contents      = configuration.ContentsDefinition
	ProviderState = configuration.ProviderStateDefinition
)

const (
	KindHTTP        = configuration.KindHTTP
	KindMessage     = configuration.KindMessage
	KindSyncMessage = configuration.KindSyncMessage
)

// JSON encodes v as a request, response or message body. Values built with
// the pact-go dsl matchers keep their matching rules.
func JSON(v interface{}) (json.RawMessage, error) {
	return json.Marshal(v)
}

// Text encodes s as a body that is used verbatim.
func Text(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}
