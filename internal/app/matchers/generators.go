package matchers

import (
	"sort"

	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

// Generator produces a fresh value at verification or replay time, e.g.
// {"type": "Uuid"}.
type Generator struct {
	Type       string
	Attributes map[string]interface{}
}

func NewGenerator(generatorType string, attributes map[string]interface{}) Generator {
	if attributes == nil {
		attributes = map[string]interface{}{}
	}
	return Generator{Type: generatorType, Attributes: attributes}
}

func (g Generator) ToJSON() map[string]interface{} {
	result := make(map[string]interface{}, len(g.Attributes)+1)
	for k, v := range g.Attributes {
		result[k] = v
	}
	result["type"] = g.Type
	return result
}

type pathGenerator struct {
	path      paths.Path
	generator Generator
}

// Generators holds at most one generator per path per category.
type Generators struct {
	categories map[string]map[string]pathGenerator
}

func NewGenerators() *Generators {
	return &Generators{categories: map[string]map[string]pathGenerator{}}
}

// Add records generator at path, replacing any generator already there.
func (g *Generators) Add(category string, path paths.Path, generator Generator) {
	entries, ok := g.categories[category]
	if !ok {
		entries = map[string]pathGenerator{}
		g.categories[category] = entries
	}
	entries[path.String()] = pathGenerator{path: path, generator: generator}
}

func (g *Generators) Get(category string, path paths.Path) (Generator, bool) {
	entry, ok := g.categories[category][path.String()]
	return entry.generator, ok
}

func (g *Generators) Len(category string) int {
	return len(g.categories[category])
}

func (g *Generators) ClearCategory(category string) {
	delete(g.categories, category)
}

// ReplaceCategory replaces the generators in category with those in from.
func (g *Generators) ReplaceCategory(category string, from *Generators) {
	g.ClearCategory(category)
	if entries, ok := from.categories[category]; ok {
		copied := make(map[string]pathGenerator, len(entries))
		for k, v := range entries {
			copied[k] = v
		}
		g.categories[category] = copied
	}
}

func (g *Generators) IsEmpty() bool {
	for _, entries := range g.categories {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

func (g *Generators) Clone() *Generators {
	clone := NewGenerators()
	for category, entries := range g.categories {
		copied := make(map[string]pathGenerator, len(entries))
		for k, v := range entries {
			copied[k] = v
		}
		clone.categories[category] = copied
	}
	return clone
}

// ToJSON renders the generators in the pact file form. Header, query and
// metadata generators are keyed by name; when several values of the same name
// carry a generator, the one at the lowest path wins.
func (g *Generators) ToJSON() map[string]interface{} {
	result := map[string]interface{}{}
	for category, entries := range g.categories {
		if len(entries) == 0 {
			continue
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if category == CategoryPath {
			result[category] = entries[keys[0]].generator.ToJSON()
			continue
		}
		rendered := map[string]interface{}{}
		for _, key := range keys {
			entry := entries[key]
			switch category {
			case CategoryHeader, CategoryQuery, CategoryMetadata:
				if name, ok := entry.path.FirstField(); ok {
					key = name
				}
			}
			if _, seen := rendered[key]; seen {
				continue
			}
			rendered[key] = entry.generator.ToJSON()
		}
		result[category] = rendered
	}
	return result
}
