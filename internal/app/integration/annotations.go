package integration

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
)

const (
	matcherTypeKey   = "pact:matcher:type"
	generatorTypeKey = "pact:generator:type"
	legacyClassKey   = "json_class"
	valueKey         = "value"
	combineKey       = "combine"
	examplesKey      = "examples"
)

var generatorAttributes = []string{"min", "max", "digits", "size", "regex", "format", "expression", "example"}

// isAnnotation reports whether obj uses the matcher annotation syntax.
func isAnnotation(obj map[string]interface{}) bool {
	for _, key := range []string{matcherTypeKey, generatorTypeKey, legacyClassKey} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// matcherDefinitions returns the matcher objects declared by an annotation.
// pact:matcher:type is either a matcher name, with the attributes alongside
// it, or a list of matcher objects.
func matcherDefinitions(obj map[string]interface{}) []map[string]interface{} {
	switch declared := obj[matcherTypeKey].(type) {
	case string:
		return []map[string]interface{}{obj}
	case []interface{}:
		var definitions []map[string]interface{}
		for _, d := range declared {
			if definition, ok := d.(map[string]interface{}); ok {
				definitions = append(definitions, definition)
			} else {
				log.Warnf("ignoring matcher definition that is not an object: %v", d)
			}
		}
		return definitions
	}
	return nil
}

func matcherName(definition map[string]interface{}) string {
	if name, ok := definition[matcherTypeKey].(string); ok {
		return name
	}
	name, _ := definition["match"].(string)
	return name
}

// buildRule converts a matcher definition into a matching rule.
func buildRule(definition map[string]interface{}) (matchers.MatchingRule, error) {
	name := matcherName(definition)
	attributes := map[string]interface{}{}
	copyAttributes := func(keys ...string) {
		for _, key := range keys {
			if v, ok := definition[key]; ok {
				attributes[key] = v
			}
		}
	}

	switch name {
	case "equality", "integer", "decimal", "number", "boolean", "null", "values", "semver", "notEmpty":
	case "type":
		copyAttributes("min", "max")
		for _, key := range []string{"min", "max"} {
			if v, ok := attributes[key]; ok {
				if _, err := toInt(v); err != nil {
					return matchers.MatchingRule{}, errors.Wrapf(err, "invalid %s for type matcher", key)
				}
			}
		}
	case "regex":
		pattern, ok := definition["regex"].(string)
		if !ok {
			return matchers.MatchingRule{}, errors.New("regex matcher requires a regex attribute")
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return matchers.MatchingRule{}, errors.Wrapf(err, "invalid regex %q", pattern)
		}
		attributes["regex"] = pattern
	case "include", "contentType":
		v, ok := definition[valueKey].(string)
		if !ok {
			return matchers.MatchingRule{}, errors.Errorf("%s matcher requires a string value", name)
		}
		attributes[valueKey] = v
	case "datetime", "timestamp", "date", "time":
		copyAttributes("format")
		if name == "timestamp" {
			name = "datetime"
		}
	case "eachKey", "eachValue":
		rules, err := nestedRules(definition["rules"])
		if err != nil {
			return matchers.MatchingRule{}, err
		}
		attributes["rules"] = rules
	case "statusCode":
		status, ok := definition["status"]
		if !ok {
			return matchers.MatchingRule{}, errors.New("statusCode matcher requires a status attribute")
		}
		attributes["status"] = status
	case "arrayContains":
		// built by processArrayContains as the variants need the walker
		return matchers.MatchingRule{}, errors.New("arrayContains must be processed with its variants")
	case "":
		return matchers.MatchingRule{}, errors.New("matcher type is missing")
	default:
		return matchers.MatchingRule{}, errors.Errorf("unknown matcher type %q", name)
	}

	return matchers.NewRule(name, attributes), nil
}

func nestedRules(value interface{}) ([]interface{}, error) {
	definitions, ok := value.([]interface{})
	if !ok {
		return nil, errors.New("matcher requires a list of rules")
	}
	var result []interface{}
	for _, d := range definitions {
		definition, ok := d.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("invalid nested matcher definition %v", d)
		}
		rule, err := buildRule(definition)
		if err != nil {
			return nil, err
		}
		result = append(result, rule.ToJSON())
	}
	return result, nil
}

// buildGenerator converts a pact:generator:type annotation into a generator.
func buildGenerator(obj map[string]interface{}) (matchers.Generator, bool) {
	name, ok := obj[generatorTypeKey].(string)
	if !ok {
		return matchers.Generator{}, false
	}
	switch name {
	case "Uuid", "RandomInt", "RandomDecimal", "RandomHexadecimal", "RandomString", "Regex",
		"Date", "Time", "DateTime", "RandomBoolean", "ProviderState", "MockServerURL":
	default:
		log.Warnf("ignoring unknown generator type %q", name)
		return matchers.Generator{}, false
	}

	attributes := map[string]interface{}{}
	for _, key := range generatorAttributes {
		if v, ok := obj[key]; ok {
			attributes[key] = v
		}
	}
	if name == "Regex" {
		if _, ok := attributes["regex"]; !ok {
			log.Warn("ignoring Regex generator without a regex attribute")
			return matchers.Generator{}, false
		}
	}
	if name == "ProviderState" {
		if _, ok := attributes["expression"]; !ok {
			log.Warn("ignoring ProviderState generator without an expression attribute")
			return matchers.Generator{}, false
		}
	}
	return matchers.NewGenerator(name, attributes), true
}

// exampleFor produces an example value for a generator annotation that has no
// literal value.
func exampleFor(generator matchers.Generator) interface{} {
	if example, ok := generator.Attributes["example"]; ok {
		return example
	}
	switch generator.Type {
	case "Uuid":
		return uuid.New().String()
	case "RandomInt":
		if min, ok := generator.Attributes["min"]; ok {
			if n, err := toInt(min); err == nil {
				return json.Number(strconv.Itoa(n))
			}
		}
		return json.Number("0")
	case "RandomDecimal":
		return json.Number("0.0")
	case "RandomHexadecimal":
		return strings.Repeat("a", attributeInt(generator, "digits", 10))
	case "RandomString":
		if _, ok := generator.Attributes["size"]; ok {
			return strings.Repeat("x", attributeInt(generator, "size", 10))
		}
		return "example"
	case "RandomBoolean":
		return true
	case "Date":
		return time.Now().UTC().Format("2006-01-02")
	case "Time":
		return time.Now().UTC().Format("15:04:05")
	case "DateTime":
		return time.Now().UTC().Format(time.RFC3339)
	case "ProviderState":
		return generator.Attributes["expression"]
	}
	return ""
}

func attributeInt(generator matchers.Generator, key string, fallback int) int {
	v, ok := generator.Attributes[key]
	if !ok {
		return fallback
	}
	n, err := toInt(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, errors.Errorf("%v is not a number", v)
}
