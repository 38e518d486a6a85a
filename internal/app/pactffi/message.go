package pactffi

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/contenttypes"
	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/integration"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/pactfile"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

// Message pact write status codes.
const (
	MessageWriteOK = iota
	MessageWriteFailed
	MessageWriteNotFound
)

// NewMessagePact creates a pact for messages. It shares the registry with
// NewPact.
func NewMessagePact(consumer, provider string) (h handles.MessagePactHandle) {
	defer catchPanic("new_message_pact", func() { h = 0 })
	return handles.MessagePactHandle(NewPact(consumer, provider))
}

func NewMessage(pact handles.MessagePactHandle, description string) (h handles.MessageHandle) {
	defer catchPanic("new_message", func() { h = handles.NewMessageHandle(pact, 0) })
	return handles.MessageHandle(NewMessageInteraction(handles.PactHandle(pact), description))
}

func NewAsyncMessage(pact handles.PactHandle, description string) (h handles.MessageHandle) {
	defer catchPanic("new_async_message", func() { h = handles.NewMessageHandle(handles.MessagePactHandle(pact), 0) })
	return handles.MessageHandle(NewMessageInteraction(pact, description))
}

// withMessage runs fn against a message. Message setters do not report
// failures, so invalid handles and other interaction kinds are only logged.
func withMessage(op string, h handles.MessageHandle, fn func(models.Interaction)) {
	if h.IsSentinel() {
		log.Warnf("%s: message handle %s was never created", op, h)
		return
	}
	if _, ok := handles.WithMessage(registry(), h, func(_ *models.Pact, m models.Interaction) struct{} {
		fn(m)
		return struct{}{}
	}); !ok {
		log.Warnf("%s: message handle %s is not valid", op, h)
		setError("%s: message handle %s is not valid", op, h)
	}
}

// requestContents returns the contents set by MessageWithContents and
// MessageWithMetadata: the message itself or the request of a synchronous
// message.
func requestContents(m models.Interaction) *models.MessageContents {
	switch message := m.(type) {
	case *models.AsynchronousMessage:
		return &message.Contents
	case *models.SynchronousMessage:
		return &message.Request
	}
	return nil
}

func MessageExpectsToReceive(h handles.MessageHandle, description string) {
	defer catchPanic("message_expects_to_receive", nil)

	if !validString("description", description) {
		return
	}
	withMessage("message_expects_to_receive", h, func(m models.Interaction) {
		m.Base().Description = description
	})
}

func MessageGiven(h handles.MessageHandle, state string) {
	defer catchPanic("message_given", nil)

	if !validString("provider state", state) {
		return
	}
	withMessage("message_given", h, func(m models.Interaction) {
		m.Base().AddProviderState(state)
	})
}

func MessageGivenWithParam(h handles.MessageHandle, state, name, value string) {
	defer catchPanic("message_given_with_param", nil)

	if !validString("provider state", state) || !validString("parameter name", name) {
		return
	}
	withMessage("message_given_with_param", h, func(m models.Interaction) {
		m.Base().SetProviderStateParam(state, name, parseValue(value))
	})
}

// MessageWithContents sets the message contents. JSON and XML contents may
// contain matcher annotations. The content type defaults to text/plain.
func MessageWithContents(h handles.MessageHandle, contentType string, body []byte) {
	defer catchPanic("message_with_contents", nil)

	if contentType == "" {
		contentType = "text/plain"
	}
	withMessage("message_with_contents", h, func(m models.Interaction) {
		if contents := requestContents(m); contents != nil {
			setContents(contents, contentType, body)
		}
	})
}

// SyncMessageWithResponseContents sets the contents of the response at index
// of a synchronous message, adding empty responses before it as needed.
func SyncMessageWithResponseContents(h handles.MessageHandle, index int, contentType string, body []byte) {
	defer catchPanic("sync_message_with_response_contents", nil)

	if index < 0 {
		log.Warnf("sync_message_with_response_contents: negative index %d", index)
		return
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	withMessage("sync_message_with_response_contents", h, func(m models.Interaction) {
		message, ok := models.AsSyncMessage(m)
		if !ok {
			log.Errorf("interaction is not a synchronous message, is %s", m.Kind().TypeOf())
			return
		}
		setContents(message.ResponseAt(index), contentType, body)
	})
}

func setContents(contents *models.MessageContents, contentType string, body []byte) {
	ct, err := contenttypes.Parse(contentType)
	if err != nil {
		log.Warnf("ignoring message content type: %s", err)
		contents.Contents = bodies.PresentBody(body, nil, bodies.HintUnset)
		return
	}
	processed, err := processBody(ct, body, contents.MatchingRules, contents.Generators)
	if err != nil {
		log.Errorf("unable to set message contents: %s", err)
		setError("message_with_contents: %s", err)
		return
	}
	contents.Contents = processed
}

// MessageWithMetadata sets a metadata value, which may be a matcher
// annotation.
func MessageWithMetadata(h handles.MessageHandle, key, value string) {
	defer catchPanic("message_with_metadata", nil)

	if !validString("metadata key", key) {
		return
	}
	withMessage("message_with_metadata", h, func(m models.Interaction) {
		contents := requestContents(m)
		if contents == nil {
			return
		}
		contents.Metadata[key] = integration.FromIntegrationJSON(contents.MatchingRules, contents.Generators, value, paths.Root().Field(key), matchers.CategoryMetadata)
	})
}

// MessageReify renders an asynchronous message as JSON: "null" for a null
// body and an empty string when there are no contents or the handle is not
// an asynchronous message.
func MessageReify(h handles.MessageHandle) (result string) {
	defer catchPanic("message_reify", func() { result = "" })

	if h.IsSentinel() {
		return ""
	}
	result, _ = handles.WithMessage(registry(), h, func(p *models.Pact, m models.Interaction) string {
		message, ok := models.AsAsyncMessage(m)
		if !ok {
			return ""
		}
		switch message.Contents.Contents.State() {
		case bodies.Null:
			return "null"
		case bodies.Present:
			data, err := json.Marshal(pactfile.RenderMessage(message, p.Specification))
			if err != nil {
				log.Errorf("unable to render message: %s", err)
				return ""
			}
			return string(data)
		}
		return ""
	})
	return result
}

func WithMessagePactMetadata(pact handles.MessagePactHandle, namespace, name, value string) {
	defer catchPanic("with_message_pact_metadata", nil)

	handles.WithMessagePact(registry(), pact, func(p *models.Pact) struct{} {
		setPactMetadata(p, namespace, name, value)
		return struct{}{}
	})
}

// WriteMessagePactFile writes the message pact to dir. It returns
// MessageWriteOK, MessageWriteFailed or MessageWriteNotFound.
func WriteMessagePactFile(pact handles.MessagePactHandle, dir string, overwrite bool) (code int) {
	defer catchPanic("write_message_pact_file", func() { code = MessageWriteFailed })

	err, ok := handles.WithMessagePact(registry(), pact, func(p *models.Pact) error {
		return pactfile.WriteFile(pactfile.FilePath(dir, p), p, p.Specification, overwrite)
	})
	if !ok {
		log.Errorf("unable to write the pact file, message pact for handle %d not found", pact)
		setError("message pact handle %d is not valid", pact)
		return MessageWriteNotFound
	}
	if err != nil {
		log.Errorf("unable to write the pact file: %s", err)
		setError("unable to write the pact file: %s", err)
		return MessageWriteFailed
	}
	return MessageWriteOK
}

// FreeMessagePactHandle deletes the message pact, returning 0 if it existed
// and 1 if not.
func FreeMessagePactHandle(pact handles.MessagePactHandle) (code uint32) {
	defer catchPanic("free_message_pact_handle", func() { code = 1 })
	return FreePactHandle(handles.PactHandle(pact))
}
