package matchers

import (
	"reflect"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

const (
	CategoryBody     = "body"
	CategoryHeader   = "header"
	CategoryQuery    = "query"
	CategoryPath     = "path"
	CategoryMetadata = "metadata"
)

type RuleLogic int

const (
	And RuleLogic = iota
	Or
)

func (l RuleLogic) String() string {
	if l == Or {
		return "OR"
	}
	return "AND"
}

// ParseRuleLogic reads the `combine` attribute of a matcher annotation.
func ParseRuleLogic(s string) RuleLogic {
	if strings.EqualFold(s, "OR") {
		return Or
	}
	return And
}

// MatchingRule is a single structural or semantic comparison, e.g.
// {"match": "regex", "regex": "\\d+"}.
type MatchingRule struct {
	Type       string
	Attributes map[string]interface{}
}

func NewRule(ruleType string, attributes map[string]interface{}) MatchingRule {
	if attributes == nil {
		attributes = map[string]interface{}{}
	}
	return MatchingRule{Type: ruleType, Attributes: attributes}
}

func (r MatchingRule) ToJSON() map[string]interface{} {
	result := make(map[string]interface{}, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		result[k] = v
	}
	result["match"] = r.Type
	return result
}

func (r MatchingRule) Equal(other MatchingRule) bool {
	return r.Type == other.Type && reflect.DeepEqual(r.Attributes, other.Attributes)
}

// RuleList holds every rule recorded at one path, combined with Logic.
type RuleList struct {
	Path  paths.Path
	Rules []MatchingRule
	Logic RuleLogic
}

func (l *RuleList) ToJSON() map[string]interface{} {
	matchers := make([]interface{}, 0, len(l.Rules))
	for _, rule := range l.Rules {
		matchers = append(matchers, rule.ToJSON())
	}
	return map[string]interface{}{
		"combine":  l.Logic.String(),
		"matchers": matchers,
	}
}

func (l *RuleList) merge(other *RuleList) {
	if other.Logic == Or {
		l.Logic = Or
	}
next:
	for _, rule := range other.Rules {
		for _, existing := range l.Rules {
			if existing.Equal(rule) {
				continue next
			}
		}
		l.Rules = append(l.Rules, rule)
	}
}

// Category is the set of rule lists for one part of an interaction (body,
// header, query, path, metadata), keyed by path expression.
type Category struct {
	Name  string
	rules map[string]*RuleList
}

func NewCategory(name string) *Category {
	return &Category{Name: name, rules: map[string]*RuleList{}}
}

// AddRule records rule at path. Rules already present at the path are not
// duplicated. Or logic is sticky once requested for a path.
func (c *Category) AddRule(path paths.Path, rule MatchingRule, logic RuleLogic) {
	key := path.String()
	list, ok := c.rules[key]
	if !ok {
		list = &RuleList{Path: path}
		c.rules[key] = list
	}
	if logic == Or {
		list.Logic = Or
	}
	for _, existing := range list.Rules {
		if existing.Equal(rule) {
			return
		}
	}
	list.Rules = append(list.Rules, rule)
}

func (c *Category) Rules(path paths.Path) (*RuleList, bool) {
	list, ok := c.rules[path.String()]
	return list, ok
}

// Entries returns the rule lists ordered by path.
func (c *Category) Entries() []*RuleList {
	keys := make([]string, 0, len(c.rules))
	for k := range c.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]*RuleList, 0, len(keys))
	for _, k := range keys {
		result = append(result, c.rules[k])
	}
	return result
}

func (c *Category) IsEmpty() bool {
	return len(c.rules) == 0
}

func (c *Category) Clone() *Category {
	clone := NewCategory(c.Name)
	for k, list := range c.rules {
		rules := make([]MatchingRule, len(list.Rules))
		copy(rules, list.Rules)
		clone.rules[k] = &RuleList{Path: list.Path, Rules: rules, Logic: list.Logic}
	}
	return clone
}

// key is how a path is written in a V3/V4 pact file for this category.
func (c *Category) key(path paths.Path) string {
	switch c.Name {
	case CategoryHeader, CategoryQuery, CategoryMetadata:
		if name, ok := path.FirstField(); ok {
			return name
		}
	}
	return path.String()
}

// ToJSON renders the category in the V3/V4 pact file form.
func (c *Category) ToJSON() interface{} {
	if c.Name == CategoryPath {
		merged := &RuleList{}
		for _, list := range c.Entries() {
			merged.merge(list)
		}
		return merged.ToJSON()
	}

	result := map[string]interface{}{}
	merged := map[string]*RuleList{}
	for _, list := range c.Entries() {
		key := c.key(list.Path)
		existing, ok := merged[key]
		if !ok {
			existing = &RuleList{Path: list.Path}
			merged[key] = existing
		}
		existing.merge(list)
	}
	for key, list := range merged {
		result[key] = list.ToJSON()
	}
	return result
}

// ToV2JSON renders the category in the flat V2 form, e.g. "$.body.id" or
// "$.headers.Accept". V2 supports a single rule per path.
func (c *Category) ToV2JSON(into map[string]interface{}) {
	for _, list := range c.Entries() {
		if len(list.Rules) == 0 {
			continue
		}
		var key string
		switch c.Name {
		case CategoryBody:
			key = "$.body" + strings.TrimPrefix(list.Path.String(), "$")
		case CategoryHeader:
			name, _ := list.Path.FirstField()
			key = "$.headers." + name
		case CategoryQuery:
			name, _ := list.Path.FirstField()
			key = "$.query." + name
		case CategoryPath:
			key = "$.path"
		default:
			continue
		}
		into[key] = list.Rules[0].ToJSON()
	}
}

// MatchingRules is the full set of categories for one interaction part.
type MatchingRules struct {
	categories map[string]*Category
}

func NewMatchingRules() *MatchingRules {
	return &MatchingRules{categories: map[string]*Category{}}
}

// AddCategory returns the named category, creating it if needed.
func (m *MatchingRules) AddCategory(name string) *Category {
	category, ok := m.categories[name]
	if !ok {
		category = NewCategory(name)
		m.categories[name] = category
	}
	return category
}

// SetCategory replaces the category with the same name.
func (m *MatchingRules) SetCategory(category *Category) {
	m.categories[category.Name] = category
}

func (m *MatchingRules) Category(name string) (*Category, bool) {
	category, ok := m.categories[name]
	return category, ok
}

func (m *MatchingRules) IsEmpty() bool {
	for _, category := range m.categories {
		if !category.IsEmpty() {
			return false
		}
	}
	return true
}

func (m *MatchingRules) Clone() *MatchingRules {
	clone := NewMatchingRules()
	for name, category := range m.categories {
		clone.categories[name] = category.Clone()
	}
	return clone
}

func (m *MatchingRules) ToJSON() map[string]interface{} {
	result := map[string]interface{}{}
	for name, category := range m.categories {
		if !category.IsEmpty() {
			result[name] = category.ToJSON()
		}
	}
	return result
}

func (m *MatchingRules) ToV2JSON() map[string]interface{} {
	result := map[string]interface{}{}
	for _, category := range m.categories {
		category.ToV2JSON(result)
	}
	return result
}
