package models

import (
	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
)

type InteractionKind int

const (
	KindSynchronousHTTP InteractionKind = iota
	KindAsynchronousMessage
	KindSynchronousMessage
)

func (k InteractionKind) String() string {
	switch k {
	case KindAsynchronousMessage:
		return "Asynchronous/Messages"
	case KindSynchronousMessage:
		return "Synchronous/Messages"
	default:
		return "Synchronous/HTTP"
	}
}

func (k InteractionKind) TypeOf() string {
	return "V4 " + k.String()
}

type ProviderState struct {
	Name   string
	Params map[string]interface{}
}

func (s ProviderState) ToJSON() map[string]interface{} {
	result := map[string]interface{}{"name": s.Name}
	if len(s.Params) > 0 {
		result["params"] = s.Params
	}
	return result
}

// InteractionBase holds the fields shared by every interaction kind.
type InteractionBase struct {
	Description    string
	ProviderStates []ProviderState
	Comments       map[string]interface{}
	Pending        bool
}

func (b *InteractionBase) Base() *InteractionBase {
	return b
}

func (b *InteractionBase) AddProviderState(name string) {
	b.ProviderStates = append(b.ProviderStates, ProviderState{Name: name, Params: map[string]interface{}{}})
}

// SetProviderStateParam adds a parameter to the first provider state called
// name, creating the state if there is none.
func (b *InteractionBase) SetProviderStateParam(name, param string, value interface{}) {
	for i := range b.ProviderStates {
		if b.ProviderStates[i].Name == name {
			if b.ProviderStates[i].Params == nil {
				b.ProviderStates[i].Params = map[string]interface{}{}
			}
			b.ProviderStates[i].Params[param] = value
			return
		}
	}
	b.ProviderStates = append(b.ProviderStates, ProviderState{
		Name:   name,
		Params: map[string]interface{}{param: value},
	})
}

func (b *InteractionBase) SetComment(key string, value interface{}) {
	if b.Comments == nil {
		b.Comments = map[string]interface{}{}
	}
	b.Comments[key] = value
}

func (b InteractionBase) clone() InteractionBase {
	states := make([]ProviderState, len(b.ProviderStates))
	for i, state := range b.ProviderStates {
		params := make(map[string]interface{}, len(state.Params))
		for k, v := range state.Params {
			params[k] = v
		}
		states[i] = ProviderState{Name: state.Name, Params: params}
	}
	var comments map[string]interface{}
	if b.Comments != nil {
		comments = make(map[string]interface{}, len(b.Comments))
		for k, v := range b.Comments {
			comments[k] = v
		}
	}
	return InteractionBase{Description: b.Description, ProviderStates: states, Comments: comments, Pending: b.Pending}
}

// Interaction is one of SynchronousHTTP, AsynchronousMessage or
// SynchronousMessage. Use the As* accessors to reach kind specific fields.
type Interaction interface {
	Base() *InteractionBase
	Kind() InteractionKind
	Clone() Interaction
}

func IsMessage(i Interaction) bool {
	return i.Kind() != KindSynchronousHTTP
}

func AsHTTP(i Interaction) (*SynchronousHTTP, bool) {
	http, ok := i.(*SynchronousHTTP)
	return http, ok
}

func AsAsyncMessage(i Interaction) (*AsynchronousMessage, bool) {
	message, ok := i.(*AsynchronousMessage)
	return message, ok
}

func AsSyncMessage(i Interaction) (*SynchronousMessage, bool) {
	message, ok := i.(*SynchronousMessage)
	return message, ok
}

type SynchronousHTTP struct {
	InteractionBase
	Request  HTTPRequest
	Response HTTPResponse
}

func NewSynchronousHTTP(description string) *SynchronousHTTP {
	return &SynchronousHTTP{
		InteractionBase: InteractionBase{Description: description},
		Request: HTTPRequest{
			Method: "GET",
			Path:   "/",
			Part:   newPart(),
		},
		Response: HTTPResponse{
			Status: 200,
			Part:   newPart(),
		},
	}
}

func (i *SynchronousHTTP) Kind() InteractionKind {
	return KindSynchronousHTTP
}

func (i *SynchronousHTTP) Clone() Interaction {
	return &SynchronousHTTP{
		InteractionBase: i.InteractionBase.clone(),
		Request: HTTPRequest{
			Method: i.Request.Method,
			Path:   i.Request.Path,
			Query:  cloneValues(i.Request.Query),
			Part:   i.Request.Part.clone(),
		},
		Response: HTTPResponse{
			Status: i.Response.Status,
			Part:   i.Response.Part.clone(),
		},
	}
}

// MessageContents is the payload of a message together with its metadata.
type MessageContents struct {
	Contents      bodies.OptionalBody
	Metadata      map[string]interface{}
	MatchingRules *matchers.MatchingRules
	Generators    *matchers.Generators
}

func NewMessageContents() MessageContents {
	return MessageContents{
		Contents:      bodies.MissingBody(),
		Metadata:      map[string]interface{}{},
		MatchingRules: matchers.NewMatchingRules(),
		Generators:    matchers.NewGenerators(),
	}
}

func (m MessageContents) clone() MessageContents {
	metadata := make(map[string]interface{}, len(m.Metadata))
	for k, v := range m.Metadata {
		metadata[k] = v
	}
	return MessageContents{
		Contents:      m.Contents,
		Metadata:      metadata,
		MatchingRules: m.MatchingRules.Clone(),
		Generators:    m.Generators.Clone(),
	}
}

type AsynchronousMessage struct {
	InteractionBase
	Contents MessageContents
}

func NewAsynchronousMessage(description string) *AsynchronousMessage {
	return &AsynchronousMessage{
		InteractionBase: InteractionBase{Description: description},
		Contents:        NewMessageContents(),
	}
}

func (m *AsynchronousMessage) Kind() InteractionKind {
	return KindAsynchronousMessage
}

func (m *AsynchronousMessage) Clone() Interaction {
	return &AsynchronousMessage{InteractionBase: m.InteractionBase.clone(), Contents: m.Contents.clone()}
}

// SynchronousMessage is a request message with zero or more response messages.
type SynchronousMessage struct {
	InteractionBase
	Request  MessageContents
	Response []MessageContents
}

func NewSynchronousMessage(description string) *SynchronousMessage {
	return &SynchronousMessage{
		InteractionBase: InteractionBase{Description: description},
		Request:         NewMessageContents(),
	}
}

func (m *SynchronousMessage) Kind() InteractionKind {
	return KindSynchronousMessage
}

// ResponseAt returns the response at index, growing the response list with
// empty contents if needed.
func (m *SynchronousMessage) ResponseAt(index int) *MessageContents {
	for len(m.Response) <= index {
		m.Response = append(m.Response, NewMessageContents())
	}
	return &m.Response[index]
}

func (m *SynchronousMessage) Clone() Interaction {
	responses := make([]MessageContents, len(m.Response))
	for i, response := range m.Response {
		responses[i] = response.clone()
	}
	return &SynchronousMessage{InteractionBase: m.InteractionBase.clone(), Request: m.Request.clone(), Response: responses}
}
