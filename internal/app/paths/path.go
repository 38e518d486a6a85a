package paths

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokenRoot tokenKind = iota
	tokenField
	tokenIndex
	tokenStarIndex
)

type token struct {
	kind  tokenKind
	field string
	index int
}

var (
	plainField      = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
	identifierField = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Path is a root anchored sequence of field and index segments identifying a
// location inside a body, header, query or metadata tree. Paths are values:
// every builder method returns a new Path and never modifies the receiver.
type Path struct {
	tokens []token
}

func Root() Path {
	return Path{tokens: []token{{kind: tokenRoot}}}
}

// Empty returns a path with no segments. It is used for the request path
// category, which has no structure.
func Empty() Path {
	return Path{}
}

func (p Path) push(t token) Path {
	tokens := make([]token, len(p.tokens), len(p.tokens)+1)
	copy(tokens, p.tokens)
	return Path{tokens: append(tokens, t)}
}

func (p Path) Field(name string) Path {
	return p.push(token{kind: tokenField, field: name})
}

func (p Path) Index(index int) Path {
	return p.push(token{kind: tokenIndex, index: index})
}

// StarIndex appends `[*]`, matching every element of an array.
func (p Path) StarIndex() Path {
	return p.push(token{kind: tokenStarIndex})
}

func (p Path) IsEmpty() bool {
	return len(p.tokens) == 0
}

func (p Path) IsRoot() bool {
	return len(p.tokens) == 1 && p.tokens[0].kind == tokenRoot
}

func (p Path) Len() int {
	return len(p.tokens)
}

// FirstField returns the first field segment after the root. Header, query and
// metadata rules are keyed by it in the pact file.
func (p Path) FirstField() (string, bool) {
	for _, t := range p.tokens {
		if t.kind == tokenField {
			return t.field, true
		}
	}
	return "", false
}

func (p Path) String() string {
	return p.render(plainField, quoteSingle)
}

func quoteSingle(field string) string {
	return "'" + strings.ReplaceAll(field, "'", "\\'") + "'"
}

func (p Path) render(fieldPattern *regexp.Regexp, quote func(string) string) string {
	var b strings.Builder
	for _, t := range p.tokens {
		switch t.kind {
		case tokenRoot:
			b.WriteString("$")
		case tokenField:
			if fieldPattern.MatchString(t.field) {
				b.WriteString(".")
				b.WriteString(t.field)
			} else {
				b.WriteString("[")
				b.WriteString(quote(t.field))
				b.WriteString("]")
			}
		case tokenIndex:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(t.index))
			b.WriteString("]")
		case tokenStarIndex:
			b.WriteString("[*]")
		}
	}
	return b.String()
}

func (p Path) Resolve(document interface{}) (interface{}, error) {
	if p.IsEmpty() {
		return nil, errors.New("cannot resolve an empty path")
	}
	value, err := jsonpath.Get(p.render(identifierField, strconv.Quote), document)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve path %s", p)
	}
	return value, nil
}
