package pactffi

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/integration"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

// Test name status codes.
const (
	TestNameOK = iota
	TestNameFailed
	TestNameInvalidHandle
	TestNameFrozen
	TestNameNotV4
)

// NewInteraction adds an HTTP interaction. An empty description or an
// invalid pact handle yields a handle with a zero index.
func NewInteraction(pact handles.PactHandle, description string) (h handles.InteractionHandle) {
	defer catchPanic("new_interaction", func() { h = handles.NewInteractionHandle(pact, 0) })
	return addInteraction(pact, description, func() models.Interaction {
		return models.NewSynchronousHTTP(description)
	})
}

func NewMessageInteraction(pact handles.PactHandle, description string) (h handles.InteractionHandle) {
	defer catchPanic("new_message_interaction", func() { h = handles.NewInteractionHandle(pact, 0) })
	return addInteraction(pact, description, func() models.Interaction {
		return models.NewAsynchronousMessage(description)
	})
}

// NewSyncMessageInteraction adds a synchronous message interaction. The
// handle can be converted to a MessageHandle for the message functions.
func NewSyncMessageInteraction(pact handles.PactHandle, description string) (h handles.InteractionHandle) {
	defer catchPanic("new_sync_message_interaction", func() { h = handles.NewInteractionHandle(pact, 0) })
	return addInteraction(pact, description, func() models.Interaction {
		return models.NewSynchronousMessage(description)
	})
}

func addInteraction(pact handles.PactHandle, description string, create func() models.Interaction) handles.InteractionHandle {
	if !validString("description", description) {
		setError("interaction description is empty or not valid UTF-8")
		return handles.NewInteractionHandle(pact, 0)
	}
	index, ok := handles.WithPact(registry(), pact, func(p *models.Pact, _ *handles.Gate) uint16 {
		if len(p.Interactions) >= 0xFFFF {
			log.Errorf("pact %d already has the maximum number of interactions", pact)
			return 0
		}
		return uint16(p.AddInteraction(create()) + 1)
	})
	if !ok {
		setError("pact handle %d is not valid", pact)
	}
	return handles.NewInteractionHandle(pact, index)
}

// mutateInteraction resolves h, applies fn and reports whether the pact was
// still a draft. An error from fn fails the call.
func mutateInteraction(op string, h handles.InteractionHandle, fn func(models.Interaction) error) bool {
	if h.IsSentinel() {
		setError("%s: interaction handle %s was never created", op, h)
		return false
	}

	var err error
	allowed, ok := handles.WithInteraction(registry(), h, func(_ *models.Pact, i models.Interaction, gate *handles.Gate) bool {
		return gate.Mutate(func() { err = fn(i) })
	})
	switch {
	case !ok:
		setError("%s: interaction handle %s is not valid", op, h)
		return false
	case err != nil:
		setError("%s: %s", op, err)
		return false
	case !allowed:
		setError("%s: pact can not be modified, the mock server has already started", op)
	}
	return allowed
}

func errNotHTTP(i models.Interaction) error {
	log.Errorf("interaction is not an HTTP interaction, is %s", i.Kind().TypeOf())
	return errors.Errorf("interaction is not an HTTP interaction, is %s", i.Kind().TypeOf())
}

func mutateHTTP(op string, h handles.InteractionHandle, fn func(*models.SynchronousHTTP) error) bool {
	return mutateInteraction(op, h, func(i models.Interaction) error {
		http, ok := models.AsHTTP(i)
		if !ok {
			return errNotHTTP(i)
		}
		return fn(http)
	})
}

func UponReceiving(h handles.InteractionHandle, description string) (ok bool) {
	defer catchPanic("upon_receiving", func() { ok = false })

	if !validString("description", description) {
		return false
	}
	return mutateInteraction("upon_receiving", h, func(i models.Interaction) error {
		i.Base().Description = description
		return nil
	})
}

func Given(h handles.InteractionHandle, state string) (ok bool) {
	defer catchPanic("given", func() { ok = false })

	if !validString("provider state", state) {
		return false
	}
	return mutateInteraction("given", h, func(i models.Interaction) error {
		i.Base().AddProviderState(state)
		return nil
	})
}

// GivenWithParam adds a parameter to a provider state, creating the state if
// the interaction does not have one with that name. The value is stored as
// JSON if it parses, otherwise as a string.
func GivenWithParam(h handles.InteractionHandle, state, name, value string) (ok bool) {
	defer catchPanic("given_with_param", func() { ok = false })

	if !validString("provider state", state) || !validString("parameter name", name) {
		return false
	}
	return mutateInteraction("given_with_param", h, func(i models.Interaction) error {
		i.Base().SetProviderStateParam(state, name, parseValue(value))
		return nil
	})
}

// InteractionTestName records the name of the test in the interaction
// comments. Comments only exist in V4 pacts. Status codes are TestNameOK,
// TestNameFailed, TestNameInvalidHandle, TestNameFrozen and TestNameNotV4.
func InteractionTestName(h handles.InteractionHandle, name string) (code uint32) {
	defer catchPanic("interaction_test_name", func() { code = TestNameFailed })

	if !validString("test name", name) {
		setError("interaction_test_name: test name is empty or not valid UTF-8")
		return TestNameFailed
	}
	if h.IsSentinel() {
		return TestNameInvalidHandle
	}

	result, ok := handles.WithInteraction(registry(), h, func(p *models.Pact, i models.Interaction, gate *handles.Gate) uint32 {
		if p.Specification != models.SpecV4 {
			return TestNameNotV4
		}
		if !gate.Mutate(func() { i.Base().SetComment("testname", name) }) {
			return TestNameFrozen
		}
		return TestNameOK
	})
	if !ok {
		setError("interaction_test_name: interaction handle %s is not valid", h)
		return TestNameInvalidHandle
	}
	return result
}

// WithRequest sets the request method and path. They default to GET and /.
// The path may be a matcher annotation.
func WithRequest(h handles.InteractionHandle, method, path string) (ok bool) {
	defer catchPanic("with_request", func() { ok = false })

	if method == "" {
		method = "GET"
	}
	if path == "" {
		path = "/"
	}
	return mutateHTTP("with_request", h, func(i *models.SynchronousHTTP) error {
		i.Request.Method = method
		i.Request.Path = integration.FromIntegrationJSON(i.Request.MatchingRules, i.Request.Generators, path, paths.Empty(), matchers.CategoryPath)
		return nil
	})
}

// WithQueryParameter sets the value at index of a query parameter, padding
// skipped indexes with empty values.
func WithQueryParameter(h handles.InteractionHandle, name string, index int, value string) (ok bool) {
	defer catchPanic("with_query_parameter", func() { ok = false })

	if !validString("query parameter name", name) {
		log.Warn("ignoring query parameter with empty or invalid name")
		return false
	}
	if index < 0 {
		setError("with_query_parameter: negative index %d", index)
		return false
	}
	return mutateHTTP("with_query_parameter", h, func(i *models.SynchronousHTTP) error {
		path := paths.Root().Field(name).Index(index)
		value := integration.FromIntegrationJSON(i.Request.MatchingRules, i.Request.Generators, value, path, matchers.CategoryQuery)
		i.Request.SetQueryParameter(name, index, value)
		return nil
	})
}

// WithHeader sets the value at index of a request or response header,
// padding skipped indexes with empty values.
func WithHeader(h handles.InteractionHandle, part InteractionPart, name string, index int, value string) (ok bool) {
	defer catchPanic("with_header", func() { ok = false })

	if !validString("header name", name) {
		log.Warn("ignoring header with empty or invalid name")
		return false
	}
	if index < 0 {
		setError("with_header: negative index %d", index)
		return false
	}
	return mutateHTTP("with_header", h, func(i *models.SynchronousHTTP) error {
		p := selectPart(i, part)
		value := integration.FromIntegrationJSON(p.MatchingRules, p.Generators, value, paths.Root().Field(name), matchers.CategoryHeader)
		p.SetHeader(name, index, value)
		return nil
	})
}

func ResponseStatus(h handles.InteractionHandle, status uint16) (ok bool) {
	defer catchPanic("response_status", func() { ok = false })

	return mutateHTTP("response_status", h, func(i *models.SynchronousHTTP) error {
		i.Response.Status = int(status)
		return nil
	})
}

func selectPart(i *models.SynchronousHTTP, part InteractionPart) *models.Part {
	if part == PartResponse {
		return &i.Response.Part
	}
	return &i.Request.Part
}
