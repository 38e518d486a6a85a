// Command libpactffi builds the pact builder as a C shared library:
//
//	go build -buildmode=c-shared -o libpactffi.so ./cmd/libpactffi
//
// Strings returned by the library must be released with
// pactffi_string_delete.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"unsafe"

	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/pactffi"
)

func main() {}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// goBytes keeps the difference between a null pointer (no body) and an
// empty buffer (empty body).
func goBytes(body *C.uint8_t, size C.size_t) []byte {
	if body == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(body), C.int(size))
}

func part(p C.int) pactffi.InteractionPart {
	if p == 1 {
		return pactffi.PartResponse
	}
	return pactffi.PartRequest
}

//export pactffi_version
func pactffi_version() *C.char {
	return C.CString(pactffi.Version)
}

//export pactffi_string_delete
func pactffi_string_delete(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// pactffi_get_error_message copies the last error into buffer. It returns
// the number of bytes copied, 0 when there is no error, -1 for a null buffer
// and -2 when the buffer is too small.
//
//export pactffi_get_error_message
func pactffi_get_error_message(buffer *C.char, length C.int) C.int {
	if buffer == nil {
		return -1
	}
	message := pactffi.GetErrorMessage()
	if message == "" {
		return 0
	}
	if len(message)+1 > int(length) {
		return -2
	}
	cs := C.CString(message)
	defer C.free(unsafe.Pointer(cs))
	C.strncpy(buffer, cs, C.size_t(length))
	return C.int(len(message))
}

//export pactffi_new_pact
func pactffi_new_pact(consumer, provider *C.char) C.uint16_t {
	return C.uint16_t(pactffi.NewPact(goString(consumer), goString(provider)))
}

//export pactffi_with_specification
func pactffi_with_specification(pact C.uint16_t, version C.int) C.bool {
	return C.bool(pactffi.WithSpecification(handles.PactHandle(pact), models.PactSpecification(version)))
}

//export pactffi_with_pact_metadata
func pactffi_with_pact_metadata(pact C.uint16_t, namespace, name, value *C.char) C.bool {
	return C.bool(pactffi.WithPactMetadata(handles.PactHandle(pact), goString(namespace), goString(name), goString(value)))
}

//export pactffi_new_interaction
func pactffi_new_interaction(pact C.uint16_t, description *C.char) C.uint32_t {
	return C.uint32_t(pactffi.NewInteraction(handles.PactHandle(pact), goString(description)))
}

//export pactffi_new_message_interaction
func pactffi_new_message_interaction(pact C.uint16_t, description *C.char) C.uint32_t {
	return C.uint32_t(pactffi.NewMessageInteraction(handles.PactHandle(pact), goString(description)))
}

//export pactffi_new_sync_message_interaction
func pactffi_new_sync_message_interaction(pact C.uint16_t, description *C.char) C.uint32_t {
	return C.uint32_t(pactffi.NewSyncMessageInteraction(handles.PactHandle(pact), goString(description)))
}

//export pactffi_upon_receiving
func pactffi_upon_receiving(interaction C.uint32_t, description *C.char) C.bool {
	return C.bool(pactffi.UponReceiving(handles.InteractionHandle(interaction), goString(description)))
}

//export pactffi_given
func pactffi_given(interaction C.uint32_t, state *C.char) C.bool {
	return C.bool(pactffi.Given(handles.InteractionHandle(interaction), goString(state)))
}

//export pactffi_given_with_param
func pactffi_given_with_param(interaction C.uint32_t, state, name, value *C.char) C.bool {
	return C.bool(pactffi.GivenWithParam(handles.InteractionHandle(interaction), goString(state), goString(name), goString(value)))
}

//export pactffi_interaction_test_name
func pactffi_interaction_test_name(interaction C.uint32_t, name *C.char) C.uint32_t {
	return C.uint32_t(pactffi.InteractionTestName(handles.InteractionHandle(interaction), goString(name)))
}

//export pactffi_with_request
func pactffi_with_request(interaction C.uint32_t, method, path *C.char) C.bool {
	return C.bool(pactffi.WithRequest(handles.InteractionHandle(interaction), goString(method), goString(path)))
}

//export pactffi_with_query_parameter_v2
func pactffi_with_query_parameter_v2(interaction C.uint32_t, name *C.char, index C.size_t, value *C.char) C.bool {
	return C.bool(pactffi.WithQueryParameter(handles.InteractionHandle(interaction), goString(name), int(index), goString(value)))
}

//export pactffi_with_header_v2
func pactffi_with_header_v2(interaction C.uint32_t, p C.int, name *C.char, index C.size_t, value *C.char) C.bool {
	return C.bool(pactffi.WithHeader(handles.InteractionHandle(interaction), part(p), goString(name), int(index), goString(value)))
}

//export pactffi_response_status
func pactffi_response_status(interaction C.uint32_t, status C.uint16_t) C.bool {
	return C.bool(pactffi.ResponseStatus(handles.InteractionHandle(interaction), uint16(status)))
}

//export pactffi_with_body
func pactffi_with_body(interaction C.uint32_t, p C.int, contentType, body *C.char) C.bool {
	return C.bool(pactffi.WithBody(handles.InteractionHandle(interaction), part(p), goString(contentType), goString(body)))
}

//export pactffi_with_binary_file
func pactffi_with_binary_file(interaction C.uint32_t, p C.int, contentType *C.char, body *C.uint8_t, size C.size_t) C.bool {
	return C.bool(pactffi.WithBinaryFile(handles.InteractionHandle(interaction), part(p), goString(contentType), goBytes(body, size)))
}

//export pactffi_mark_mock_server_started
func pactffi_mark_mock_server_started(pact C.uint16_t) C.bool {
	return C.bool(pactffi.MarkMockServerStarted(handles.PactHandle(pact)))
}

//export pactffi_pact_handle_to_json
func pactffi_pact_handle_to_json(pact C.uint16_t) *C.char {
	rendered, ok := pactffi.PactHandleToJSON(handles.PactHandle(pact))
	if !ok {
		return nil
	}
	return C.CString(rendered)
}

//export pactffi_pact_handle_write_file
func pactffi_pact_handle_write_file(pact C.uint16_t, directory *C.char, overwrite C.bool) C.int {
	return C.int(pactffi.PactHandleWriteFile(handles.PactHandle(pact), goString(directory), bool(overwrite)))
}

//export pactffi_free_pact_handle
func pactffi_free_pact_handle(pact C.uint16_t) C.uint32_t {
	return C.uint32_t(pactffi.FreePactHandle(handles.PactHandle(pact)))
}

//export pactffi_new_message_pact
func pactffi_new_message_pact(consumer, provider *C.char) C.uint16_t {
	return C.uint16_t(pactffi.NewMessagePact(goString(consumer), goString(provider)))
}

//export pactffi_new_message
func pactffi_new_message(pact C.uint16_t, description *C.char) C.uint32_t {
	return C.uint32_t(pactffi.NewMessage(handles.MessagePactHandle(pact), goString(description)))
}

//export pactffi_new_async_message
func pactffi_new_async_message(pact C.uint16_t, description *C.char) C.uint32_t {
	return C.uint32_t(pactffi.NewAsyncMessage(handles.PactHandle(pact), goString(description)))
}

//export pactffi_message_expects_to_receive
func pactffi_message_expects_to_receive(message C.uint32_t, description *C.char) {
	pactffi.MessageExpectsToReceive(handles.MessageHandle(message), goString(description))
}

//export pactffi_message_given
func pactffi_message_given(message C.uint32_t, state *C.char) {
	pactffi.MessageGiven(handles.MessageHandle(message), goString(state))
}

//export pactffi_message_given_with_param
func pactffi_message_given_with_param(message C.uint32_t, state, name, value *C.char) {
	pactffi.MessageGivenWithParam(handles.MessageHandle(message), goString(state), goString(name), goString(value))
}

//export pactffi_message_with_contents
func pactffi_message_with_contents(message C.uint32_t, contentType *C.char, body *C.uint8_t, size C.size_t) {
	pactffi.MessageWithContents(handles.MessageHandle(message), goString(contentType), goBytes(body, size))
}

//export pactffi_sync_message_set_response_contents
func pactffi_sync_message_set_response_contents(message C.uint32_t, index C.size_t, contentType *C.char, body *C.uint8_t, size C.size_t) {
	pactffi.SyncMessageWithResponseContents(handles.MessageHandle(message), int(index), goString(contentType), goBytes(body, size))
}

//export pactffi_message_with_metadata
func pactffi_message_with_metadata(message C.uint32_t, key, value *C.char) {
	pactffi.MessageWithMetadata(handles.MessageHandle(message), goString(key), goString(value))
}

//export pactffi_message_reify
func pactffi_message_reify(message C.uint32_t) *C.char {
	return C.CString(pactffi.MessageReify(handles.MessageHandle(message)))
}

//export pactffi_with_message_pact_metadata
func pactffi_with_message_pact_metadata(pact C.uint16_t, namespace, name, value *C.char) {
	pactffi.WithMessagePactMetadata(handles.MessagePactHandle(pact), goString(namespace), goString(name), goString(value))
}

//export pactffi_write_message_pact_file
func pactffi_write_message_pact_file(pact C.uint16_t, directory *C.char, overwrite C.bool) C.int {
	return C.int(pactffi.WriteMessagePactFile(handles.MessagePactHandle(pact), goString(directory), bool(overwrite)))
}

//export pactffi_free_message_pact_handle
func pactffi_free_message_pact_handle(pact C.uint16_t) C.uint32_t {
	return C.uint32_t(pactffi.FreeMessagePactHandle(handles.MessagePactHandle(pact)))
}
