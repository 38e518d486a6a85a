package pactffi

import (
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/pactfile"
)

// NewPact creates a pact, defaulting empty names to "Consumer" and
// "Provider".
func NewPact(consumer, provider string) (h handles.PactHandle) {
	defer catchPanic("new_pact", func() { h = 0 })

	if !validString("consumer name", consumer) {
		consumer = "Consumer"
	}
	if !validString("provider name", provider) {
		provider = "Provider"
	}
	pact := models.NewPact(consumer, provider)
	pact.AddMetadataVersion(metadataNamespace, Version)
	return registry().Create(pact)
}

func WithSpecification(pact handles.PactHandle, spec models.PactSpecification) (ok bool) {
	defer catchPanic("with_specification", func() { ok = false })

	if spec < models.SpecUnknown || spec > models.SpecV4 {
		setError("invalid specification version %d", spec)
		return false
	}
	return mutatePact("with_specification", pact, func(p *models.Pact) {
		p.Specification = spec
	})
}

// WithPactMetadata sets metadata[namespace] to {name: value}. An empty
// namespace is ignored.
func WithPactMetadata(pact handles.PactHandle, namespace, name, value string) (ok bool) {
	defer catchPanic("with_pact_metadata", func() { ok = false })

	return mutatePact("with_pact_metadata", pact, func(p *models.Pact) {
		setPactMetadata(p, namespace, name, value)
	})
}

func setPactMetadata(p *models.Pact, namespace, name, value string) {
	if namespace == "" {
		log.Warnf("no namespace provided for metadata %q => %q, ignoring", name, value)
		return
	}
	p.Metadata[namespace] = map[string]interface{}{name: value}
}

func mutatePact(op string, h handles.PactHandle, fn func(*models.Pact)) bool {
	allowed, ok := handles.WithPact(registry(), h, func(p *models.Pact, gate *handles.Gate) bool {
		return gate.Mutate(func() { fn(p) })
	})
	if !ok {
		setError("%s: pact handle %d is not valid", op, h)
		return false
	}
	if !allowed {
		setError("%s: pact can not be modified, the mock server has already started", op)
	}
	return allowed
}

// PactHandleWriteFile writes the pact to dir, or the working directory when
// dir is empty. It returns 0 on success, 1 if the call panicked, 2 if the
// file could not be written and 3 if the handle is not valid.
func PactHandleWriteFile(pact handles.PactHandle, dir string, overwrite bool) (code int) {
	defer catchPanic("pact_handle_write_file", func() { code = 1 })

	err, ok := handles.WithPact(registry(), pact, func(p *models.Pact, _ *handles.Gate) error {
		return pactfile.WriteFile(pactfile.FilePath(dir, p), p, p.Specification, overwrite)
	})
	if !ok {
		log.Errorf("unable to write the pact file, pact for handle %d not found", pact)
		setError("pact handle %d is not valid", pact)
		return 3
	}
	if err != nil {
		log.Errorf("unable to write the pact file: %s", err)
		setError("unable to write the pact file: %s", err)
		return 2
	}
	return 0
}

// PactHandleToJSON renders the pact in the format of its specification
// version. It returns false when the handle is not valid or the pact can not
// be rendered in that version.
func PactHandleToJSON(pact handles.PactHandle) (result string, ok bool) {
	defer catchPanic("pact_handle_to_json", func() { result, ok = "", false })

	var err error
	data, found := handles.WithPact(registry(), pact, func(p *models.Pact, _ *handles.Gate) []byte {
		var data []byte
		data, err = pactfile.Marshal(p, p.Specification)
		return data
	})
	if !found {
		setError("pact handle %d is not valid", pact)
		return "", false
	}
	if err != nil {
		setError("unable to render the pact: %s", err)
		return "", false
	}
	return string(data), true
}

func PactHandleMessages(pact handles.PactHandle) (messages []*models.AsynchronousMessage, ok bool) {
	defer catchPanic("pact_handle_messages", func() { messages, ok = nil, false })

	messages, ok = handles.WithPact(registry(), pact, func(p *models.Pact, _ *handles.Gate) []*models.AsynchronousMessage {
		return p.Messages()
	})
	if !ok {
		setError("pact handle %d is not valid", pact)
	}
	return messages, ok
}

// MarkMockServerStarted freezes the pact. It is called by the mock server,
// never by the builder functions.
func MarkMockServerStarted(pact handles.PactHandle) (ok bool) {
	defer catchPanic("mark_mock_server_started", func() { ok = false })
	return registry().MarkMockServerStarted(pact)
}

// FreePactHandle deletes the pact, returning 0 if it existed and 1 if not.
func FreePactHandle(pact handles.PactHandle) (code uint32) {
	defer catchPanic("free_pact_handle", func() { code = 1 })

	if registry().Delete(pact) {
		return 0
	}
	return 1
}
