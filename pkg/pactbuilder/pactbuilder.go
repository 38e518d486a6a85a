package pactbuilder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/form3tech-oss/pact-builder/internal/app/configuration"
)

type Client struct {
	client http.Client
	url    string
}

type Pact struct {
	Handle uint32
	client *Client
}

type Interaction struct {
	Handle uint32
	pact   *Pact
}

func New(url string) *Client {
	return &Client{
		client: http.Client{
			Timeout: 30 * time.Second,
		},
		url: strings.TrimSuffix(url, "/"),
	}
}

func (c *Client) IsReady() error {
	_, err := c.do(http.MethodGet, "/health", nil, http.StatusOK)
	return err
}

// WaitForReady polls the admin API until it answers. The default is ten
// attempts half a second apart.
func (c *Client) WaitForReady(opts ...retry.Option) error {
	options := append([]retry.Option{
		retry.Attempts(10),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(500 * time.Millisecond),
		retry.LastErrorOnly(true),
	}, opts...)

	return errors.Wrap(retry.Do(c.IsReady, options...), "admin API readiness wait failed")
}

// NewPact creates a pact. An empty specification means V3.
func (c *Client) NewPact(consumer, provider, specification string) (*Pact, error) {
	var response configuration.HandleResponse
	err := c.doJSON(http.MethodPost, "/pacts", configuration.PactDefinition{
		Consumer:      consumer,
		Provider:      provider,
		Specification: specification,
	}, http.StatusCreated, &response)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pact")
	}
	return &Pact{Handle: response.Handle, client: c}, nil
}

func (c *Client) Reset() error {
	_, err := c.do(http.MethodDelete, "/pacts", nil, http.StatusNoContent)
	return err
}

func (p *Pact) path(format string, a ...interface{}) string {
	return fmt.Sprintf("/pacts/%d", p.Handle) + fmt.Sprintf(format, a...)
}

func (p *Pact) AddInteraction(description string) (*Interaction, error) {
	return p.addInteraction(description, KindHTTP)
}

func (p *Pact) AddMessage(description string) (*Interaction, error) {
	return p.addInteraction(description, KindMessage)
}

func (p *Pact) AddSyncMessage(description string) (*Interaction, error) {
	return p.addInteraction(description, KindSyncMessage)
}

func (p *Pact) addInteraction(description, kind string) (*Interaction, error) {
	var response configuration.HandleResponse
	err := p.client.doJSON(http.MethodPost, p.path("/interactions"), configuration.InteractionDefinition{
		Description: description,
		Kind:        kind,
	}, http.StatusCreated, &response)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to add interaction %q", description)
	}
	return &Interaction{Handle: response.Handle, pact: p}, nil
}

func (p *Pact) AddMetadata(namespace, name, value string) error {
	_, err := p.client.do(http.MethodPost, p.path("/metadata"), configuration.MetadataDefinition{
		Namespace: namespace,
		Name:      name,
		Value:     value,
	}, http.StatusNoContent)
	return err
}

func (p *Pact) MarkMockServerStarted() error {
	_, err := p.client.do(http.MethodPost, p.path("/mock-server"), nil, http.StatusNoContent)
	return err
}

func (p *Pact) JSON() ([]byte, error) {
	return p.client.do(http.MethodGet, p.path(""), nil, http.StatusOK)
}

// WriteFile writes the pact file into dir on the server, or the server's
// configured directory when dir is empty.
func (p *Pact) WriteFile(dir string, overwrite bool) error {
	_, err := p.client.do(http.MethodPost, p.path("/files"), configuration.WriteDefinition{
		Dir:       dir,
		Overwrite: overwrite,
	}, http.StatusNoContent)
	return err
}

func (p *Pact) Delete() error {
	_, err := p.client.do(http.MethodDelete, p.path(""), nil, http.StatusNoContent)
	return err
}

func (i *Interaction) path(suffix string) string {
	return fmt.Sprintf("/interactions/%d%s", i.Handle, suffix)
}

func (i *Interaction) Given(state ProviderState) error {
	_, err := i.pact.client.do(http.MethodPost, i.path("/states"), state, http.StatusNoContent)
	return err
}

func (i *Interaction) WithRequest(request Request) error {
	_, err := i.pact.client.do(http.MethodPut, i.path("/request"), request, http.StatusNoContent)
	return err
}

func (i *Interaction) WillRespondWith(response Response) error {
	_, err := i.pact.client.do(http.MethodPut, i.path("/response"), response, http.StatusNoContent)
	return err
}

// TestName records the test name in the comments of a V4 interaction.
func (i *Interaction) TestName(name string) error {
	_, err := i.pact.client.do(http.MethodPut, i.path("/test-name"), configuration.TestNameDefinition{Name: name}, http.StatusNoContent)
	return err
}

func (i *Interaction) WithContents(contents Contents) error {
	_, err := i.pact.client.do(http.MethodPut, i.path("/contents"), contents, http.StatusNoContent)
	return err
}

// Reify returns the message as the provider would send it.
func (i *Interaction) Reify() ([]byte, error) {
	return i.pact.client.do(http.MethodGet, i.path("/contents"), nil, http.StatusOK)
}

func (c *Client) doJSON(method, path string, body interface{}, expected int, into interface{}) error {
	data, err := c.do(method, path, body, expected)
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(data, into), "failed to decode response")
}

func (c *Client) do(method, path string, body interface{}, expected int) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		content, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(content)
	}

	req, err := http.NewRequest(method, c.url+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if res.StatusCode != expected {
		message := gjson.GetBytes(data, "error_message").String()
		return nil, errors.Errorf("%s %s returned %d: %s", method, path, res.StatusCode, message)
	}
	return data, nil
}
