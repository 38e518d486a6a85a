package models

import (
	"fmt"
	"strings"
)

type Participant struct {
	Name string
}

// Pact is the contract document between a consumer and a provider.
type Pact struct {
	Consumer      Participant
	Provider      Participant
	Interactions  []Interaction
	Metadata      map[string]interface{}
	Specification PactSpecification
}

func NewPact(consumer, provider string) *Pact {
	return &Pact{
		Consumer:      Participant{Name: consumer},
		Provider:      Participant{Name: provider},
		Metadata:      map[string]interface{}{},
		Specification: SpecV3,
	}
}

// AddMetadataVersion records the version of the library that built the pact.
func (p *Pact) AddMetadataVersion(key, version string) {
	p.SetMetadata(key, "version", version)
}

// SetMetadata sets metadata[namespace][name] = value.
func (p *Pact) SetMetadata(namespace, name string, value interface{}) {
	if p.Metadata == nil {
		p.Metadata = map[string]interface{}{}
	}
	entries, ok := p.Metadata[namespace].(map[string]interface{})
	if !ok {
		entries = map[string]interface{}{}
		p.Metadata[namespace] = entries
	}
	entries[name] = value
}

// DefaultFileName is the file name used when writing the pact to a directory.
func (p *Pact) DefaultFileName() string {
	return fmt.Sprintf("%s-%s.json", sanitise(p.Consumer.Name), sanitise(p.Provider.Name))
}

func sanitise(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// AddInteraction appends an interaction and returns its zero based index.
func (p *Pact) AddInteraction(i Interaction) int {
	p.Interactions = append(p.Interactions, i)
	return len(p.Interactions) - 1
}

func (p *Pact) Interaction(index int) (Interaction, bool) {
	if index < 0 || index >= len(p.Interactions) {
		return nil, false
	}
	return p.Interactions[index], true
}

// Messages returns copies of the asynchronous messages.
func (p *Pact) Messages() []*AsynchronousMessage {
	var messages []*AsynchronousMessage
	for _, i := range p.Interactions {
		if message, ok := AsAsyncMessage(i); ok {
			clone, _ := AsAsyncMessage(message.Clone())
			messages = append(messages, clone)
		}
	}
	return messages
}

// HasMessages and HasHTTP report which interaction kinds the pact contains.
func (p *Pact) HasMessages() bool {
	for _, i := range p.Interactions {
		if IsMessage(i) {
			return true
		}
	}
	return false
}

func (p *Pact) HasHTTP() bool {
	for _, i := range p.Interactions {
		if !IsMessage(i) {
			return true
		}
	}
	return false
}
