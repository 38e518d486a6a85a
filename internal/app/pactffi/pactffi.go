// Package pactffi is the boundary used by foreign callers to build pacts. No
// function in this package returns a Go error or lets a panic escape: results
// are reported as booleans or status codes and the last failure message is
// available from GetErrorMessage.
package pactffi

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/handles"
)

// Version is recorded in the metadata of every pact built here.
const Version = "0.1.0"

const metadataNamespace = "pactBuilder"

// InteractionPart selects the request or the response of an HTTP interaction.
type InteractionPart int

const (
	PartRequest InteractionPart = iota
	PartResponse
)

func (p InteractionPart) String() string {
	if p == PartResponse {
		return "response"
	}
	return "request"
}

var (
	errorMu   sync.Mutex
	lastError string
)

func GetErrorMessage() string {
	errorMu.Lock()
	defer errorMu.Unlock()
	return lastError
}

func setError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	errorMu.Lock()
	lastError = message
	errorMu.Unlock()
}

// catchPanic must be deferred directly by every exported function.
func catchPanic(op string, onPanic func()) {
	if r := recover(); r != nil {
		setError("%s panicked: %v", op, r)
		log.WithField("op", op).Errorf("recovered from panic: %v", r)
		if onPanic != nil {
			onPanic()
		}
	}
}

func registry() *handles.Registry {
	return handles.Default()
}

// Reset drops every pact and the last error message.
func Reset() {
	registry().Reset()
	errorMu.Lock()
	lastError = ""
	errorMu.Unlock()
}

func validString(field, s string) bool {
	if s == "" {
		log.Warnf("%s is empty", field)
		return false
	}
	if !utf8.ValidString(s) {
		log.Warnf("%s is not a valid UTF-8 string", field)
		return false
	}
	return true
}

// parseValue decodes a provider state parameter, keeping it as a string when
// it is not JSON.
func parseValue(value string) interface{} {
	decoder := json.NewDecoder(strings.NewReader(value))
	decoder.UseNumber()
	var parsed interface{}
	if err := decoder.Decode(&parsed); err != nil || decoder.More() {
		return value
	}
	return parsed
}
