package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/form3tech-oss/pact-builder/internal/app/bodies"
	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

func TestParseSpecification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PactSpecification
	}{
		{"v1", "1.0.0", SpecV1},
		{"v1.1", "V1.1", SpecV1_1},
		{"v2", "2.0.0", SpecV2},
		{"v3", "3", SpecV3},
		{"v4", "v4.0", SpecV4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpecification(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSpecification("5")
	assert.Error(t, err)
}

func TestSetHeaderPadsSkippedIndexes(t *testing.T) {
	i := NewSynchronousHTTP("a request")
	i.Request.SetHeader("X-Id", 0, "1")
	i.Request.SetHeader("x-id", 2, "3")

	values, ok := i.Request.Header("X-ID")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "", "3"}, values)
	assert.Len(t, i.Request.Headers, 1)
}

func TestSetQueryParameterPadsSkippedIndexes(t *testing.T) {
	i := NewSynchronousHTTP("a request")
	i.Request.SetQueryParameter("id", 2, "3")
	assert.Equal(t, []string{"", "", "3"}, i.Request.Query["id"])
}

func TestNewSynchronousHTTPDefaults(t *testing.T) {
	i := NewSynchronousHTTP("a request")
	assert.Equal(t, "GET", i.Request.Method)
	assert.Equal(t, "/", i.Request.Path)
	assert.Equal(t, 200, i.Response.Status)
	assert.Equal(t, bodies.Missing, i.Request.Body.State())
	assert.Equal(t, "Synchronous/HTTP", i.Kind().String())
	assert.Equal(t, "V4 Synchronous/HTTP", i.Kind().TypeOf())
}

func TestPartContentTypeFallsBackToHeader(t *testing.T) {
	i := NewSynchronousHTTP("a request")
	_, ok := i.Request.ContentType()
	assert.False(t, ok)

	i.Request.SetHeader("content-type", 0, "application/json")
	ct, ok := i.Request.ContentType()
	require.True(t, ok)
	assert.True(t, ct.IsJSON())
}

func TestAccessors(t *testing.T) {
	var interactions = []Interaction{
		NewSynchronousHTTP("http"),
		NewAsynchronousMessage("async"),
		NewSynchronousMessage("sync"),
	}

	_, ok := AsHTTP(interactions[0])
	assert.True(t, ok)
	_, ok = AsAsyncMessage(interactions[0])
	assert.False(t, ok)
	_, ok = AsAsyncMessage(interactions[1])
	assert.True(t, ok)
	_, ok = AsSyncMessage(interactions[2])
	assert.True(t, ok)

	assert.False(t, IsMessage(interactions[0]))
	assert.True(t, IsMessage(interactions[1]))
	assert.True(t, IsMessage(interactions[2]))
}

func TestCloneIsIndependent(t *testing.T) {
	original := NewSynchronousHTTP("a request")
	original.AddProviderState("state")
	original.Request.SetHeader("X-Id", 0, "1")

	clone, ok := AsHTTP(original.Clone())
	require.True(t, ok)
	clone.Request.SetHeader("X-Id", 0, "2")
	clone.Request.MatchingRules.AddCategory(matchers.CategoryBody).
		AddRule(paths.Root(), matchers.NewRule("type", nil), matchers.And)
	clone.ProviderStates[0].Name = "other"

	assert.Equal(t, []string{"1"}, original.Request.Headers["X-Id"])
	assert.True(t, original.Request.MatchingRules.IsEmpty())
	assert.Equal(t, "state", original.ProviderStates[0].Name)
}

func TestSetProviderStateParam(t *testing.T) {
	i := NewAsynchronousMessage("a message")
	i.AddProviderState("user exists")
	i.SetProviderStateParam("user exists", "id", 10)
	i.SetProviderStateParam("new state", "name", "bob")

	require.Len(t, i.ProviderStates, 2)
	assert.Equal(t, map[string]interface{}{"id": 10}, i.ProviderStates[0].Params)
	assert.Equal(t, map[string]interface{}{"name": "bob"}, i.ProviderStates[1].Params)
	assert.Equal(t, map[string]interface{}{"name": "user exists", "params": map[string]interface{}{"id": 10}},
		i.ProviderStates[0].ToJSON())
}

func TestSyncMessageResponseAt(t *testing.T) {
	m := NewSynchronousMessage("a message")
	m.ResponseAt(1).Metadata["a"] = "b"
	require.Len(t, m.Response, 2)
	assert.Empty(t, m.Response[0].Metadata)
	assert.Equal(t, "b", m.Response[1].Metadata["a"])
}

func TestPact(t *testing.T) {
	p := NewPact("ConsumerA", "ProviderB")
	assert.Equal(t, "ConsumerA-ProviderB.json", p.DefaultFileName())
	assert.Equal(t, SpecV3, p.Specification)

	p.AddMetadataVersion("pactBuilder", "1.0.0")
	p.SetMetadata("pactBuilder", "lang", "go")
	assert.Equal(t, map[string]interface{}{"version": "1.0.0", "lang": "go"}, p.Metadata["pactBuilder"])

	assert.Equal(t, 0, p.AddInteraction(NewSynchronousHTTP("a")))
	assert.Equal(t, 1, p.AddInteraction(NewAsynchronousMessage("b")))
	assert.True(t, p.HasHTTP())
	assert.True(t, p.HasMessages())

	messages := p.Messages()
	require.Len(t, messages, 1)
	messages[0].Description = "changed"
	assert.Equal(t, "b", p.Interactions[1].Base().Description)

	_, ok := p.Interaction(2)
	assert.False(t, ok)
}

func TestDefaultFileNameSanitisesSeparators(t *testing.T) {
	p := NewPact("a/b", "c:d")
	assert.Equal(t, "a_b-c_d.json", p.DefaultFileName())
}
