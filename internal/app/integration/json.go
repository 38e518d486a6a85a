// Package integration turns example payloads written in the matcher
// annotation syntax into literal example values plus the matching rules and
// generators they declare.
package integration

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

type walker struct {
	rules      *matchers.Category
	generators *matchers.Generators
}

func newWalker(rules *matchers.Category, generators *matchers.Generators) *walker {
	return &walker{rules: rules, generators: generators}
}

// ProcessJSON strips the annotations from a JSON body, recording their rules
// in rules and their generators under the same category. Bodies that are not
// JSON are returned unchanged.
func ProcessJSON(body string, rules *matchers.Category, generators *matchers.Generators) string {
	document, err := decode(body)
	if err != nil {
		log.Debugf("body is not JSON, using it as is: %s", err)
		return body
	}

	processed := newWalker(rules, generators).value(document, paths.Root())
	encoded, err := encode(processed)
	if err != nil {
		log.Warnf("unable to encode processed body, using it as is: %s", err)
		return body
	}
	return encoded
}

// FromIntegrationJSON extracts a single header, query, path or metadata value.
// When the value is a matcher annotation its rules and generators are
// recorded at path and the literal value is returned, otherwise the value is
// returned unchanged.
func FromIntegrationJSON(rules *matchers.MatchingRules, generators *matchers.Generators, value string, path paths.Path, category string) string {
	document, err := decode(value)
	if err != nil {
		return value
	}
	obj, ok := document.(map[string]interface{})
	if !ok || !isAnnotation(obj) {
		return value
	}

	processed := newWalker(rules.AddCategory(category), generators).annotation(obj, path)
	return jsonToString(processed)
}

func (w *walker) value(v interface{}, path paths.Path) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if isAnnotation(t) {
			return w.annotation(t, path)
		}
		result := make(map[string]interface{}, len(t))
		for key, child := range t {
			result[key] = w.value(child, path.Field(key))
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(t))
		for i, child := range t {
			result[i] = w.value(child, path.Index(i))
		}
		return result
	default:
		return v
	}
}

func (w *walker) annotation(obj map[string]interface{}, path paths.Path) interface{} {
	if class, ok := obj[legacyClassKey].(string); ok {
		return w.legacy(class, obj, path)
	}

	logic := matchers.And
	if combine, ok := obj[combineKey].(string); ok {
		logic = matchers.ParseRuleLogic(combine)
	}

	arrayLike := false
	var contains interface{}
	for _, definition := range matcherDefinitions(obj) {
		name := matcherName(definition)
		if name == "arrayContains" {
			if processed, ok := w.arrayContains(definition, path, logic); ok {
				contains = processed
			}
			continue
		}
		rule, err := buildRule(definition)
		if err != nil {
			log.Warnf("ignoring matcher at %s: %s", path, err)
			continue
		}
		w.rules.AddRule(path, rule, logic)
		if name == "eachValue" || (name == "type" && (hasKey(definition, "min") || hasKey(definition, "max"))) {
			arrayLike = true
		}
	}

	generator, hasGenerator := buildGenerator(obj)
	if hasGenerator {
		w.generators.Add(w.rules.Name, path, generator)
	}

	value, hasValue := obj[valueKey]
	switch {
	case hasValue:
	case contains != nil:
		return contains
	case hasGenerator:
		return exampleFor(generator)
	default:
		return nil
	}

	if array, ok := value.([]interface{}); ok && arrayLike {
		if examples, ok := obj[examplesKey]; ok && len(array) > 0 {
			if n, err := toInt(examples); err == nil && n > 0 {
				array = replicate(array[0], n)
			}
		}
		result := make([]interface{}, len(array))
		for i, element := range array {
			result[i] = w.value(element, path.StarIndex())
		}
		return result
	}
	return w.value(value, path)
}

// arrayContains processes each variant against its own rule set, recording
// them as a single arrayContains rule at path.
func (w *walker) arrayContains(definition map[string]interface{}, path paths.Path, logic matchers.RuleLogic) (interface{}, bool) {
	variants, ok := definition["variants"].([]interface{})
	if !ok {
		log.Warnf("ignoring arrayContains matcher at %s without variants", path)
		return nil, false
	}

	values := make([]interface{}, len(variants))
	rendered := make([]interface{}, len(variants))
	for i, variant := range variants {
		rules := matchers.NewCategory(w.rules.Name)
		generators := matchers.NewGenerators()
		values[i] = newWalker(rules, generators).value(variant, paths.Root())

		entry := map[string]interface{}{
			"index": i,
			"rules": rules.ToJSON(),
		}
		if generated, ok := generators.ToJSON()[w.rules.Name]; ok {
			entry["generators"] = generated
		}
		rendered[i] = entry
	}

	w.rules.AddRule(path, matchers.NewRule("arrayContains", map[string]interface{}{"variants": rendered}), logic)
	return values, true
}

func replicate(element interface{}, n int) []interface{} {
	result := make([]interface{}, n)
	for i := range result {
		result[i] = element
	}
	return result
}

func hasKey(obj map[string]interface{}, key string) bool {
	_, ok := obj[key]
	return ok
}

func decode(text string) (interface{}, error) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return document, nil
}

func encode(value interface{}) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return "", errors.Wrap(err, "unable to encode JSON")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// jsonToString renders a scalar extracted from an annotation. Strings are
// returned without quotes.
func jsonToString(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := encode(value)
	if err != nil {
		log.Warnf("unable to encode value: %s", err)
		return ""
	}
	return encoded
}
