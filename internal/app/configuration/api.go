package configuration

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/form3tech-oss/pact-builder/internal/app/handles"
	"github.com/form3tech-oss/pact-builder/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-builder/internal/app/models"
	"github.com/form3tech-oss/pact-builder/internal/app/pactffi"
)

type adminAPI struct {
	config Config
}

// NewAdminAPI exposes the pact builder over HTTP.
func NewAdminAPI(config Config) *echo.Echo {
	api := &adminAPI{config: config}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", api.healthHandler)

	e.POST("/pacts", api.postPactHandler)
	e.DELETE("/pacts", api.deletePactsHandler)
	e.GET("/pacts/:pact", api.getPactHandler)
	e.DELETE("/pacts/:pact", api.deletePactHandler)
	e.POST("/pacts/:pact/metadata", api.postMetadataHandler)
	e.POST("/pacts/:pact/mock-server", api.postMockServerHandler)
	e.POST("/pacts/:pact/files", api.postFileHandler)
	e.POST("/pacts/:pact/interactions", api.postInteractionHandler)

	e.POST("/interactions/:interaction/states", api.postStateHandler)
	e.PUT("/interactions/:interaction/request", api.putRequestHandler)
	e.PUT("/interactions/:interaction/response", api.putResponseHandler)
	e.PUT("/interactions/:interaction/test-name", api.putTestNameHandler)
	e.PUT("/interactions/:interaction/contents", api.putContentsHandler)
	e.GET("/interactions/:interaction/contents", api.getContentsHandler)

	return e
}

func (a *adminAPI) healthHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (a *adminAPI) postPactHandler(c echo.Context) error {
	definition := PactDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse pact from data. %s", err.Error()))
	}

	spec := models.SpecV3
	if definition.Specification != "" {
		parsed, err := models.ParseSpecification(definition.Specification)
		if err != nil {
			return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
		}
		spec = parsed
	}

	pact := pactffi.NewPact(definition.Consumer, definition.Provider)
	if pact == 0 {
		return failure(c, http.StatusInternalServerError)
	}
	if !pactffi.WithSpecification(pact, spec) {
		return failure(c, http.StatusInternalServerError)
	}

	log.WithField("pact", pact).Infof("created pact between %s and %s", definition.Consumer, definition.Provider)
	return c.JSON(http.StatusCreated, HandleResponse{Handle: uint32(pact)})
}

func (a *adminAPI) deletePactsHandler(c echo.Context) error {
	log.Info("deleting all pacts")
	pactffi.Reset()
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) getPactHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}

	rendered, ok := pactffi.PactHandleToJSON(pact)
	if !ok {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(rendered))
}

func (a *adminAPI) deletePactHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}

	if pactffi.FreePactHandle(pact) != 0 {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("pact handle %d is not valid", pact))
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) postMetadataHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := MetadataDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse metadata from data. %s", err.Error()))
	}

	if !pactffi.WithPactMetadata(pact, definition.Namespace, definition.Name, definition.Value) {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) postMockServerHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}

	if !pactffi.MarkMockServerStarted(pact) {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("pact handle %d is not valid", pact))
	}
	log.WithField("pact", pact).Info("mock server started, pact is frozen")
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) postFileHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := WriteDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse write request from data. %s", err.Error()))
	}
	if definition.Dir == "" {
		definition.Dir = a.config.PactDir
	}

	switch pactffi.PactHandleWriteFile(pact, definition.Dir, definition.Overwrite) {
	case 0:
		return c.NoContent(http.StatusNoContent)
	case 3:
		return failure(c, http.StatusNotFound)
	default:
		return failure(c, http.StatusInternalServerError)
	}
}

func (a *adminAPI) postInteractionHandler(c echo.Context) error {
	pact, err := pactHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := InteractionDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse interaction from data. %s", err.Error()))
	}

	var h handles.InteractionHandle
	switch definition.Kind {
	case "", KindHTTP:
		h = pactffi.NewInteraction(pact, definition.Description)
	case KindMessage:
		h = pactffi.NewMessageInteraction(pact, definition.Description)
	case KindSyncMessage:
		h = pactffi.NewSyncMessageInteraction(pact, definition.Description)
	default:
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unknown interaction kind %q", definition.Kind))
	}
	if h.IsSentinel() {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.JSON(http.StatusCreated, HandleResponse{Handle: uint32(h)})
}

func (a *adminAPI) postStateHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := ProviderStateDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse provider state from data. %s", err.Error()))
	}

	ok := pactffi.Given(h, definition.Name)
	for _, name := range sortedKeys(definition.Params) {
		ok = pactffi.GivenWithParam(h, definition.Name, name, definition.Params[name]) && ok
	}
	if !ok {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) putRequestHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := PartDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse request from data. %s", err.Error()))
	}

	ok := pactffi.WithRequest(h, definition.Method, definition.Path)
	for _, name := range sortedKeys(definition.Query) {
		for index, value := range definition.Query[name] {
			ok = pactffi.WithQueryParameter(h, name, index, value) && ok
		}
	}
	ok = applyPart(h, pactffi.PartRequest, definition) && ok
	if !ok {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) putResponseHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := PartDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse response from data. %s", err.Error()))
	}
	if definition.Status < 0 || definition.Status > 0xFFFF {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("invalid status %d", definition.Status))
	}

	ok := true
	if definition.Status != 0 {
		ok = pactffi.ResponseStatus(h, uint16(definition.Status))
	}
	ok = applyPart(h, pactffi.PartResponse, definition) && ok
	if !ok {
		return failure(c, http.StatusUnprocessableEntity)
	}
	return c.NoContent(http.StatusNoContent)
}

// applyPart sets the headers and body of a part. Every value is applied even
// after a failure, matching the builder functions.
func applyPart(h handles.InteractionHandle, part pactffi.InteractionPart, definition PartDefinition) bool {
	ok := true
	for _, name := range sortedKeys(definition.Headers) {
		for index, value := range definition.Headers[name] {
			ok = pactffi.WithHeader(h, part, name, index, value) && ok
		}
	}
	if body, present := bodyText(definition.Body); present {
		ok = pactffi.WithBody(h, part, definition.ContentType, body) && ok
	}
	return ok
}

func (a *adminAPI) putTestNameHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := TestNameDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse test name from data. %s", err.Error()))
	}

	switch pactffi.InteractionTestName(h, definition.Name) {
	case pactffi.TestNameOK:
		return c.NoContent(http.StatusNoContent)
	case pactffi.TestNameInvalidHandle:
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("interaction handle %s is not valid", h))
	case pactffi.TestNameFrozen:
		return c.JSON(http.StatusConflict, httpresponse.Error("pact can not be modified, the mock server has already started"))
	case pactffi.TestNameNotV4:
		return c.JSON(http.StatusUnprocessableEntity, httpresponse.Error("test names are only supported by V4 pacts"))
	default:
		return failure(c, http.StatusUnprocessableEntity)
	}
}

func (a *adminAPI) putContentsHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}
	definition := ContentsDefinition{}
	if err := c.Bind(&definition); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse message contents from data. %s", err.Error()))
	}

	m := handles.MessageHandle(h)
	if contents, present := bodyText(definition.Contents); present {
		if definition.ResponseIndex != nil {
			pactffi.SyncMessageWithResponseContents(m, *definition.ResponseIndex, definition.ContentType, []byte(contents))
		} else {
			pactffi.MessageWithContents(m, definition.ContentType, []byte(contents))
		}
	}
	for _, key := range sortedKeys(definition.Metadata) {
		pactffi.MessageWithMetadata(m, key, definition.Metadata[key])
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) getContentsHandler(c echo.Context) error {
	h, err := interactionHandle(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Error(err.Error()))
	}

	reified := pactffi.MessageReify(handles.MessageHandle(h))
	if reified == "" {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("interaction %s is not an asynchronous message with contents", h))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(reified))
}

func failure(c echo.Context, status int) error {
	return c.JSON(status, httpresponse.Error(pactffi.GetErrorMessage()))
}

func pactHandle(c echo.Context) (handles.PactHandle, error) {
	id, err := strconv.ParseUint(c.Param("pact"), 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid pact handle %q", c.Param("pact"))
	}
	return handles.PactHandle(id), nil
}

func interactionHandle(c echo.Context) (handles.InteractionHandle, error) {
	id, err := strconv.ParseUint(c.Param("interaction"), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid interaction handle %q", c.Param("interaction"))
	}
	return handles.InteractionHandle(id), nil
}

// bodyText returns the body a client sent: the value of a JSON string, or
// the raw JSON of anything else.
func bodyText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	value := gjson.ParseBytes(raw)
	if value.Type == gjson.String {
		return value.String(), true
	}
	return string(raw), true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
