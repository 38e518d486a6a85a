package app

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pact-foundation/pact-go/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/form3tech-oss/pact-builder/pkg/pactbuilder"
)

type BuilderStage struct {
	t             *testing.T
	assert        *assert.Assertions
	client        *pactbuilder.Client
	consumer      string
	specification string
	pact          *pactbuilder.Pact
	interaction   *pactbuilder.Interaction
	message       *pactbuilder.Interaction
	rendered      gjson.Result
	reified       gjson.Result
	err           error
}

func NewBuilderStage(t *testing.T) (*BuilderStage, *BuilderStage, *BuilderStage) {
	client := pactbuilder.New(adminURL.String())
	if err := client.WaitForReady(); err != nil {
		t.Logf("Error waiting for the admin API: %v", err)
		t.Fail()
	}

	s := &BuilderStage{
		t:             t,
		assert:        assert.New(t),
		client:        client,
		consumer:      "consumer-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		specification: "V4",
	}

	s.t.Cleanup(func() {
		if s.pact != nil {
			_ = s.pact.Delete()
		}
	})

	return s, s, s
}

func (s *BuilderStage) and() *BuilderStage {
	return s
}

func (s *BuilderStage) a_v3_pact() *BuilderStage {
	s.specification = "V3"
	return s.a_pact()
}

func (s *BuilderStage) a_pact() *BuilderStage {
	pact, err := s.client.NewPact(s.consumer, "provider", s.specification)
	s.assert.NoError(err)
	s.pact = pact
	return s
}

func (s *BuilderStage) an_interaction_to_create_a_user() *BuilderStage {
	interaction, err := s.pact.AddInteraction("a request to create a user")
	s.assert.NoError(err)
	s.interaction = interaction

	body, err := pactbuilder.JSON(map[string]interface{}{
		"name": dsl.Like("sam"),
		"age":  map[string]interface{}{"pact:matcher:type": "integer", "value": 30},
	})
	s.assert.NoError(err)

	s.assert.NoError(interaction.Given(pactbuilder.ProviderState{Name: "no users exist"}))
	s.assert.NoError(interaction.WithRequest(pactbuilder.Request{
		Method:      "POST",
		Path:        "/users",
		ContentType: "application/json",
		Body:        body,
	}))
	s.assert.NoError(interaction.WillRespondWith(pactbuilder.Response{
		Status:  201,
		Headers: map[string][]string{"Location": {`{"pact:matcher:type": "regex", "regex": "^/users/\\d+$", "value": "/users/1"}`}},
	}))
	return s
}

func (s *BuilderStage) an_event_for_the_created_user() *BuilderStage {
	message, err := s.pact.AddMessage("a user was created")
	s.assert.NoError(err)
	s.message = message

	contents, err := pactbuilder.JSON(map[string]interface{}{
		"id":    map[string]interface{}{"pact:generator:type": "Uuid", "pact:matcher:type": "regex", "regex": "^[0-9a-f-]{36}$"},
		"roles": dsl.EachLike("admin", 2),
	})
	s.assert.NoError(err)
	s.assert.NoError(message.WithContents(pactbuilder.Contents{
		ContentType: "application/json",
		Contents:    contents,
	}))
	return s
}

func (s *BuilderStage) the_mock_server_has_started() *BuilderStage {
	s.assert.NoError(s.pact.MarkMockServerStarted())
	return s
}

func (s *BuilderStage) the_response_status_is_changed_to(status int) *BuilderStage {
	s.err = s.interaction.WillRespondWith(pactbuilder.Response{Status: status})
	return s
}

func (s *BuilderStage) the_pact_is_rendered() *BuilderStage {
	data, err := s.pact.JSON()
	s.assert.NoError(err)
	s.rendered = gjson.ParseBytes(data)
	return s
}

func (s *BuilderStage) the_pact_is_written() *BuilderStage {
	s.assert.NoError(s.pact.WriteFile("", false))
	return s
}

func (s *BuilderStage) the_pact_is_written_again() *BuilderStage {
	return s.the_pact_is_written()
}

func (s *BuilderStage) the_message_is_reified() *BuilderStage {
	data, err := s.message.Reify()
	s.assert.NoError(err)
	s.reified = gjson.ParseBytes(data)
	return s
}

func (s *BuilderStage) the_request_body_is(expected string) *BuilderStage {
	s.assert.JSONEq(expected, s.rendered.Get("interactions.0.request.body.content").Raw)
	return s
}

func (s *BuilderStage) the_request_body_has_a_rule_at(path, match string) *BuilderStage {
	rules := s.rendered.Get("interactions.0.request.matchingRules.body").Map()
	s.assert.Contains(rules, path)
	s.assert.Equal(match, rules[path].Get("matchers.0.match").String())
	return s
}

func (s *BuilderStage) the_response_header_is(name, value string) *BuilderStage {
	s.assert.Equal(value, s.rendered.Get("interactions.0.response.headers."+name+".0").String())
	s.assert.True(s.rendered.Get("interactions.0.response.matchingRules.header." + name).Exists())
	return s
}

func (s *BuilderStage) the_response_status_is(status int) *BuilderStage {
	s.assert.Equal(int64(status), s.rendered.Get("interactions.0.response.status").Int())
	return s
}

func (s *BuilderStage) the_change_is_reported_as_failed() *BuilderStage {
	s.assert.Error(s.err)
	return s
}

func (s *BuilderStage) the_message_has_a_generated_id() *BuilderStage {
	s.assert.Len(s.reified.Get("contents.id").String(), 36)
	s.assert.Equal("Uuid", s.reified.Get(`generators.body.$\.id.type`).String())
	return s
}

func (s *BuilderStage) the_message_roles_are(expected string) *BuilderStage {
	s.assert.JSONEq(expected, s.reified.Get("contents.roles").Raw)
	return s
}

func (s *BuilderStage) the_pact_file_has_n_interactions(n int) *BuilderStage {
	data, err := os.ReadFile(filepath.Join(pactDir, s.consumer+"-provider.json"))
	s.assert.NoError(err)
	s.assert.Len(gjson.GetBytes(data, "interactions").Array(), n)
	return s
}
