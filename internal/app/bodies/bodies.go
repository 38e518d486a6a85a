package bodies

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/form3tech-oss/pact-builder/internal/app/contenttypes"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type State int

const (
	// Missing means no body was ever set. It is not written to the pact file.
	Missing State = iota
	Empty
	// Null is a body whose wire form was the JSON null literal. It is treated
	// as Empty when matching and is not written to the pact file.
	Null
	Present
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Null:
		return "Null"
	case Present:
		return "Present"
	default:
		return "Missing"
	}
}

// ContentTypeHint overrides how a body is encoded in the pact file.
type ContentTypeHint int

const (
	HintUnset ContentTypeHint = iota
	HintDefault
	HintText
	HintBinary
)

func (h ContentTypeHint) String() string {
	switch h {
	case HintText:
		return "TEXT"
	case HintBinary:
		return "BINARY"
	default:
		return "DEFAULT"
	}
}

// OptionalBody is a request, response or message body. It is replaced
// wholesale when a body is set and never mutated in place.
type OptionalBody struct {
	state       State
	value       []byte
	contentType *contenttypes.ContentType
	hint        ContentTypeHint
}

func MissingBody() OptionalBody {
	return OptionalBody{state: Missing}
}

func EmptyBody() OptionalBody {
	return OptionalBody{state: Empty}
}

func NullBody() OptionalBody {
	return OptionalBody{state: Null}
}

// PresentBody returns a present body. A zero length value yields Empty.
func PresentBody(value []byte, contentType *contenttypes.ContentType, hint ContentTypeHint) OptionalBody {
	if len(value) == 0 {
		return EmptyBody()
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return OptionalBody{state: Present, value: copied, contentType: contentType, hint: hint}
}

// New builds a body from a caller supplied buffer: a nil buffer is Missing,
// a zero length buffer is Empty and anything else is Present. An empty
// content type leaves the body without one so that it can be inferred from
// the headers.
func New(value []byte, contentType string, binary bool) OptionalBody {
	if value == nil {
		return MissingBody()
	}
	if len(value) == 0 {
		return EmptyBody()
	}
	var ct *contenttypes.ContentType
	if contentType != "" {
		parsed, err := contenttypes.Parse(contentType)
		if err != nil {
			log.Warnf("ignoring body content type: %s", err)
		} else {
			ct = &parsed
		}
	}
	hint := HintUnset
	if binary {
		hint = HintBinary
	}
	return PresentBody(value, ct, hint)
}

func (b OptionalBody) State() State {
	return b.state
}

func (b OptionalBody) IsPresent() bool {
	return b.state == Present
}

func (b OptionalBody) Value() ([]byte, bool) {
	if b.state != Present {
		return nil, false
	}
	return b.value, true
}

func (b OptionalBody) StrValue() string {
	if b.state != Present {
		return ""
	}
	return string(b.value)
}

func (b OptionalBody) ContentType() (contenttypes.ContentType, bool) {
	if b.state != Present || b.contentType == nil {
		return contenttypes.ContentType{}, false
	}
	return *b.contentType, true
}

func (b OptionalBody) Hint() ContentTypeHint {
	return b.hint
}

// WithContentType returns a copy of a present body with the content type
// replaced. Other states are returned unchanged.
func (b OptionalBody) WithContentType(ct contenttypes.ContentType) OptionalBody {
	if b.state != Present {
		return b
	}
	b.contentType = &ct
	return b
}

func (b OptionalBody) String() string {
	switch b.state {
	case Present:
		if b.contentType != nil {
			return fmt.Sprintf("Present(%d bytes, %s)", len(b.value), b.contentType)
		}
		return fmt.Sprintf("Present(%d bytes)", len(b.value))
	default:
		return b.state.String()
	}
}

func (b OptionalBody) effectiveContentType() contenttypes.ContentType {
	if b.contentType != nil {
		return *b.contentType
	}
	return contenttypes.Default()
}

func base64Encoded(value []byte) (interface{}, interface{}) {
	return base64.StdEncoding.EncodeToString(value), "base64"
}

// ToV4JSON renders the canonical V4 form of the body. The second return value
// is false when the body must be left out of the document (Missing and Null).
func (b OptionalBody) ToV4JSON() (map[string]interface{}, bool) {
	switch b.state {
	case Empty:
		return map[string]interface{}{"content": ""}, true
	case Present:
	default:
		return nil, false
	}

	contentType := b.effectiveContentType()
	var content, encoded interface{}
	switch {
	case contentType.IsJSON():
		parsed, err := decodeJSON(b.value)
		if err != nil {
			log.Warnf("failed to parse json body: %s", err)
			content, encoded = base64Encoded(b.value)
		} else {
			content, encoded = parsed, false
		}
	case b.hint == HintBinary || contentType.IsBinary():
		content, encoded = base64Encoded(b.value)
	default:
		if utf8.Valid(b.value) {
			content, encoded = string(b.value), false
		} else {
			content, encoded = base64Encoded(b.value)
		}
	}

	result := map[string]interface{}{
		"content":     content,
		"contentType": contentType.String(),
		"encoded":     encoded,
	}
	if b.hint != HintUnset {
		result["contentTypeHint"] = b.hint.String()
	}
	return result, true
}

// ToV3JSON renders the body the way V1 to V3 pact files embed it: JSON bodies
// as structured values and everything else as a string.
func (b OptionalBody) ToV3JSON() (interface{}, bool) {
	switch b.state {
	case Empty:
		return "", true
	case Present:
	default:
		return nil, false
	}

	contentType := b.effectiveContentType()
	if contentType.IsJSON() {
		if parsed, err := decodeJSON(b.value); err == nil {
			return parsed, true
		}
	}
	if utf8.Valid(b.value) && !(b.hint == HintBinary || contentType.IsBinary()) {
		return string(b.value), true
	}
	encoded, _ := base64Encoded(b.value)
	return encoded, true
}

func decodeJSON(value []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(value))
	decoder.UseNumber()
	var result interface{}
	if err := decoder.Decode(&result); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return result, nil
}
