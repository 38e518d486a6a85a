package configuration

import "encoding/json"

type PactDefinition struct {
	Consumer      string `json:"consumer"`
	Provider      string `json:"provider"`
	Specification string `json:"specification,omitempty"` // e.g. "V4" or "3.0.0", defaults to V3
}

type HandleResponse struct {
	Handle uint32 `json:"handle"`
}

type MetadataDefinition struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

const (
	KindHTTP        = "http"
	KindMessage     = "message"
	KindSyncMessage = "sync-message"
)

type InteractionDefinition struct {
	Description string `json:"description"`
	Kind        string `json:"kind,omitempty"` // defaults to KindHTTP
}

type ProviderStateDefinition struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// PartDefinition describes a request or a response. Header, query, path and
// body values may be matcher annotations. A body that is a JSON string is
// used as the body text, any other JSON value is used as written.
type PartDefinition struct {
	Method      string              `json:"method,omitempty"`
	Path        string              `json:"path,omitempty"`
	Status      int                 `json:"status,omitempty"`
	Query       map[string][]string `json:"query,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`
	ContentType string              `json:"contentType,omitempty"`
	Body        json.RawMessage     `json:"body,omitempty"`
}

type ContentsDefinition struct {
	ContentType   string            `json:"contentType,omitempty"`
	Contents      json.RawMessage   `json:"contents,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ResponseIndex *int              `json:"responseIndex,omitempty"` // sets a synchronous message response instead of the request
}

type WriteDefinition struct {
	Dir       string `json:"dir,omitempty"`
	Overwrite bool   `json:"overwrite"`
}

type TestNameDefinition struct {
	Name string `json:"name"`
}
