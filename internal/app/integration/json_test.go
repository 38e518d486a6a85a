package integration

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/pact-foundation/pact-go/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

func newBody() (*matchers.Category, *matchers.Generators) {
	return matchers.NewCategory(matchers.CategoryBody), matchers.NewGenerators()
}

func rulesAt(t *testing.T, category *matchers.Category, path string) []map[string]interface{} {
	t.Helper()
	for _, list := range category.Entries() {
		if list.Path.String() == path {
			var result []map[string]interface{}
			for _, rule := range list.Rules {
				result = append(result, rule.ToJSON())
			}
			return result
		}
	}
	t.Fatalf("no rules at %s", path)
	return nil
}

func TestProcessJSON(t *testing.T) {
	for _, tt := range []struct {
		name  string
		body  string
		want  string
		rules map[string][]map[string]interface{}
	}{
		{
			name:  "plain body",
			body:  `{"id": 1, "tags": ["a", "b"]}`,
			want:  `{"id":1,"tags":["a","b"]}`,
			rules: map[string][]map[string]interface{}{},
		},
		{
			name: "type matcher keeps the value type",
			body: `{"id": {"pact:matcher:type": "type", "value": 100}, "active": {"pact:matcher:type": "boolean", "value": false}}`,
			want: `{"active":false,"id":100}`,
			rules: map[string][]map[string]interface{}{
				"$.id":     {{"match": "type"}},
				"$.active": {{"match": "boolean"}},
			},
		},
		{
			name: "regex matcher",
			body: `{"code": {"pact:matcher:type": "regex", "regex": "\\d{3}", "value": "123"}}`,
			want: `{"code":"123"}`,
			rules: map[string][]map[string]interface{}{
				"$.code": {{"match": "regex", "regex": `\d{3}`}},
			},
		},
		{
			name: "multiple matchers combined with OR",
			body: `{"v": {"pact:matcher:type": [{"pact:matcher:type": "integer"}, {"pact:matcher:type": "null"}], "combine": "OR", "value": 1}}`,
			want: `{"v":1}`,
			rules: map[string][]map[string]interface{}{
				"$.v": {{"match": "integer"}, {"match": "null"}},
			},
		},
		{
			name: "nested annotations use the field path",
			body: `{"user": {"first name": {"pact:matcher:type": "type", "value": "Bob"}}}`,
			want: `{"user":{"first name":"Bob"}}`,
			rules: map[string][]map[string]interface{}{
				"$.user['first name']": {{"match": "type"}},
			},
		},
		{
			name: "array elements use index paths",
			body: `[{"pact:matcher:type": "integer", "value": 1}, 2]`,
			want: `[1,2]`,
			rules: map[string][]map[string]interface{}{
				"$[0]": {{"match": "integer"}},
			},
		},
		{
			name: "array like matcher walks its elements with a star index",
			body: `{"items": {"pact:matcher:type": "type", "min": 1, "value": [{"id": {"pact:matcher:type": "integer", "value": 10}}]}}`,
			want: `{"items":[{"id":10}]}`,
			rules: map[string][]map[string]interface{}{
				"$.items":       {{"match": "type", "min": json.Number("1")}},
				"$.items[*].id": {{"match": "integer"}},
			},
		},
		{
			name: "examples replicate the first element",
			body: `{"pact:matcher:type": "type", "min": 1, "examples": 3, "value": ["a"]}`,
			want: `["a","a","a"]`,
			rules: map[string][]map[string]interface{}{
				"$": {{"match": "type", "min": json.Number("1")}},
			},
		},
		{
			name: "datetime format",
			body: `{"at": {"pact:matcher:type": "timestamp", "format": "yyyy-MM-dd", "value": "2020-01-01"}}`,
			want: `{"at":"2020-01-01"}`,
			rules: map[string][]map[string]interface{}{
				"$.at": {{"match": "datetime", "format": "yyyy-MM-dd"}},
			},
		},
		{
			name:  "unknown matcher degrades to the literal value",
			body:  `{"id": {"pact:matcher:type": "unknown", "value": 1}}`,
			want:  `{"id":1}`,
			rules: map[string][]map[string]interface{}{},
		},
		{
			name:  "invalid regex degrades to the literal value",
			body:  `{"id": {"pact:matcher:type": "regex", "regex": "[", "value": "x"}}`,
			want:  `{"id":"x"}`,
			rules: map[string][]map[string]interface{}{},
		},
		{
			name:  "non JSON body is passed through",
			body:  `this is <not> json`,
			want:  `this is <not> json`,
			rules: map[string][]map[string]interface{}{},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rules, generators := newBody()
			got := ProcessJSON(tt.body, rules, generators)

			if tt.body == tt.want {
				assert.Equal(t, tt.want, got)
			} else {
				assert.JSONEq(t, tt.want, got)
			}
			assert.Len(t, rules.Entries(), len(tt.rules))
			for path, expected := range tt.rules {
				assert.Equal(t, expected, rulesAt(t, rules, path))
			}
		})
	}
}

func TestProcessJSONMatcherAnnotationProducesOneRule(t *testing.T) {
	rules, generators := newBody()

	got := ProcessJSON(`{"id": {"pact:matcher:type": "integer", "value": 1}}`, rules, generators)

	assert.JSONEq(t, `{"id":1}`, got)
	require.Len(t, rules.Entries(), 1)
	list := rules.Entries()[0]
	assert.Equal(t, "$.id", list.Path.String())
	assert.Len(t, list.Rules, 1)
	assert.True(t, generators.IsEmpty())
}

func TestProcessJSONGenerators(t *testing.T) {
	rules, generators := newBody()

	got := ProcessJSON(`{
		"id": {"pact:matcher:type": "regex", "regex": "^[0-9a-f-]+$", "pact:generator:type": "Uuid"},
		"count": {"pact:generator:type": "RandomInt", "min": 5, "max": 10},
		"flag": {"pact:generator:type": "RandomBoolean", "value": false},
		"token": {"pact:generator:type": "Unknown", "value": "abc"}
	}`, rules, generators)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(got), &body))
	_, err := uuid.Parse(body["id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, float64(5), body["count"])
	assert.Equal(t, false, body["flag"])
	assert.Equal(t, "abc", body["token"])

	generator, ok := generators.Get(matchers.CategoryBody, paths.Root().Field("id"))
	require.True(t, ok)
	assert.Equal(t, "Uuid", generator.Type)

	generator, ok = generators.Get(matchers.CategoryBody, paths.Root().Field("count"))
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"type": "RandomInt", "min": json.Number("5"), "max": json.Number("10")}, generator.ToJSON())

	assert.Equal(t, 3, generators.Len(matchers.CategoryBody))
}

func TestProcessJSONAnnotationWithoutValueOrGenerator(t *testing.T) {
	rules, generators := newBody()

	got := ProcessJSON(`{"a": {"pact:matcher:type": "type"}, "b": 1}`, rules, generators)

	assert.JSONEq(t, `{"a":null,"b":1}`, got)
	assert.NotContains(t, got, "pact:")
	assert.Equal(t, []map[string]interface{}{{"match": "type"}}, rulesAt(t, rules, "$.a"))

	rules, generators = newBody()
	assert.Equal(t, "null", ProcessJSON(`{"pact:matcher:type": "type"}`, rules, generators))
}

func TestProcessJSONArrayContains(t *testing.T) {
	rules, generators := newBody()

	got := ProcessJSON(`{"events": {"pact:matcher:type": "arrayContains", "variants": [
		{"type": {"pact:matcher:type": "regex", "regex": "^created$", "value": "created"}},
		{"id": 1}
	]}}`, rules, generators)

	assert.JSONEq(t, `{"events":[{"type":"created"},{"id":1}]}`, got)
	rule := rulesAt(t, rules, "$.events")
	require.Len(t, rule, 1)
	assert.Equal(t, "arrayContains", rule[0]["match"])

	variants := rule[0]["variants"].([]interface{})
	require.Len(t, variants, 2)
	assert.Equal(t, map[string]interface{}{
		"index": 0,
		"rules": map[string]interface{}{
			"$.type": map[string]interface{}{
				"combine":  "AND",
				"matchers": []interface{}{map[string]interface{}{"match": "regex", "regex": "^created$"}},
			},
		},
	}, variants[0])
}

func TestProcessJSONLegacyMatchers(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"name":  dsl.Like("Bob"),
		"id":    dsl.Term("123", `\d+`),
		"items": dsl.EachLike(map[string]interface{}{"sku": dsl.Like("A1")}, 2),
	})
	require.NoError(t, err)
	rules, generators := newBody()

	got := ProcessJSON(string(body), rules, generators)

	assert.JSONEq(t, `{"name":"Bob","id":"123","items":[{"sku":"A1"},{"sku":"A1"}]}`, got)
	assert.Equal(t, []map[string]interface{}{{"match": "type"}}, rulesAt(t, rules, "$.name"))
	assert.Equal(t, []map[string]interface{}{{"match": "regex", "regex": `\d+`}}, rulesAt(t, rules, "$.id"))
	assert.Equal(t, []map[string]interface{}{{"match": "type", "min": 2}}, rulesAt(t, rules, "$.items"))
	assert.Equal(t, []map[string]interface{}{{"match": "type"}}, rulesAt(t, rules, "$.items[*].sku"))
}

func TestFromIntegrationJSON(t *testing.T) {
	for _, tt := range []struct {
		name     string
		value    string
		category string
		path     paths.Path
		want     string
		rules    bool
	}{
		{"plain string", "application/json", matchers.CategoryHeader, paths.Root().Field("Accept"), "application/json", false},
		{"number literal", "100", matchers.CategoryQuery, paths.Root().Field("size").Index(0), "100", false},
		{"plain object", `{"a": 1}`, matchers.CategoryHeader, paths.Root().Field("X"), `{"a": 1}`, false},
		{"regex header", `{"pact:matcher:type": "regex", "regex": "\\d+", "value": "12"}`, matchers.CategoryHeader, paths.Root().Field("X-Count"), "12", true},
		{"numeric value", `{"pact:matcher:type": "integer", "value": 12}`, matchers.CategoryQuery, paths.Root().Field("size").Index(0), "12", true},
		{"path matcher", `{"pact:matcher:type": "regex", "regex": "/items/\\d+", "value": "/items/1"}`, matchers.CategoryPath, paths.Empty(), "/items/1", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rules := matchers.NewMatchingRules()
			generators := matchers.NewGenerators()

			got := FromIntegrationJSON(rules, generators, tt.value, tt.path, tt.category)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rules, !rules.IsEmpty())
			if tt.rules {
				category, ok := rules.Category(tt.category)
				require.True(t, ok)
				_, ok = category.Rules(tt.path)
				assert.True(t, ok)
			}
		})
	}
}

func TestFromIntegrationJSONGeneratorCategory(t *testing.T) {
	rules := matchers.NewMatchingRules()
	generators := matchers.NewGenerators()
	path := paths.Root().Field("X-Request-Id")

	got := FromIntegrationJSON(rules, generators, `{"pact:generator:type": "Uuid", "value": "e2490de5-5bd3-43d5-b7c4-526e33f71304"}`, path, matchers.CategoryHeader)

	assert.Equal(t, "e2490de5-5bd3-43d5-b7c4-526e33f71304", got)
	generator, ok := generators.Get(matchers.CategoryHeader, path)
	require.True(t, ok)
	assert.Equal(t, "Uuid", generator.Type)
}
