package integration

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

// ProcessXML generates an XML body from a JSON builder document of the form
//
//	{"version": "1.0", "charset": "UTF-8", "root": {"name": "projects",
//	  "attributes": {"id": "1"}, "children": [{"content": "text"}]}}
//
// Elements, attributes and text nodes may be wrapped in matcher annotations.
// Rules are recorded at paths like $.projects.project['@id'] and
// $.projects.project['#text'].
func ProcessXML(body string, rules *matchers.Category, generators *matchers.Generators) ([]byte, error) {
	document, err := decode(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse XML builder document")
	}
	obj, ok := document.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("XML builder document is invalid (expected an object), have %s", body)
	}
	root, ok := obj["root"].(map[string]interface{})
	if !ok {
		return nil, errors.New("XML builder document has no root element")
	}

	version := stringOr(obj["version"], "1.0")
	charset := stringOr(obj["charset"], "UTF-8")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", fmt.Sprintf(`version="%s" encoding="%s"`, version, charset))
	if err := newWalker(rules, generators).xmlNode(&doc.Element, root, paths.Root()); err != nil {
		return nil, err
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "unable to write XML body")
	}
	return out, nil
}

// xmlNode adds the element described by node to parent. A node wrapped in an
// annotation records its rules against the element path and is
// repeated `examples` times.
func (w *walker) xmlNode(parent *etree.Element, node map[string]interface{}, path paths.Path) error {
	if !isAnnotation(node) {
		return w.xmlElement(parent, node, path)
	}

	element, ok := node[valueKey].(map[string]interface{})
	if !ok {
		return errors.Errorf("XML matcher at %s has no element value", path)
	}
	name, ok := element["name"].(string)
	if !ok || name == "" {
		return errors.Errorf("XML element under %s is missing a name", path)
	}
	w.addRules(node, path.Field(name))

	examples := 1
	if v, ok := node[examplesKey]; ok {
		if n, err := toInt(v); err == nil && n > 0 {
			examples = n
		}
	}
	for i := 0; i < examples; i++ {
		if err := w.xmlElement(parent, element, path); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) xmlElement(parent *etree.Element, node map[string]interface{}, parentPath paths.Path) error {
	name, ok := node["name"].(string)
	if !ok || name == "" {
		return errors.Errorf("XML element under %s is missing a name", parentPath)
	}
	path := parentPath.Field(name)
	element := parent.CreateElement(name)

	if attributes, ok := node["attributes"].(map[string]interface{}); ok {
		keys := make([]string, 0, len(attributes))
		for k := range attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := attributes[k]
			if annotation, ok := value.(map[string]interface{}); ok && isAnnotation(annotation) {
				value = w.annotation(annotation, path.Field("@"+k))
			}
			element.CreateAttr(k, jsonToString(value))
		}
	}

	children, _ := node["children"].([]interface{})
	for _, c := range children {
		child, ok := c.(map[string]interface{})
		if !ok {
			return errors.Errorf("invalid XML child node under %s: %v", path, c)
		}
		if content, ok := child["content"]; ok {
			if matcher, ok := child["matcher"].(map[string]interface{}); ok {
				w.addRules(matcher, path.Field("#text"))
			}
			element.CreateText(jsonToString(content))
			continue
		}
		if err := w.xmlNode(element, child, path); err != nil {
			return err
		}
	}
	return nil
}

// addRules records the matchers and generator declared by an annotation
// without extracting a value.
func (w *walker) addRules(annotation map[string]interface{}, path paths.Path) {
	logic := matchers.And
	if combine, ok := annotation[combineKey].(string); ok {
		logic = matchers.ParseRuleLogic(combine)
	}
	for _, definition := range matcherDefinitions(annotation) {
		rule, err := buildRule(definition)
		if err != nil {
			log.Warnf("ignoring matcher at %s: %s", path, err)
			continue
		}
		w.rules.AddRule(path, rule, logic)
	}
	if generator, ok := buildGenerator(annotation); ok {
		w.generators.Add(w.rules.Name, path, generator)
	}
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
