package contenttypes

import (
	"mime"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	mediaTypeJSON        = "application/json"
	mediaTypeXML         = "application/xml"
	mediaTypeText        = "text/plain"
	mediaTypeOctetStream = "application/octet-stream"
)

var (
	JSON        = MustParse(mediaTypeJSON)
	XML         = MustParse(mediaTypeXML)
	Text        = MustParse(mediaTypeText)
	OctetStream = MustParse(mediaTypeOctetStream)
)

// application subtypes that carry text.
var textSubTypes = map[string]bool{
	"json":                  true,
	"xml":                   true,
	"javascript":            true,
	"x-javascript":          true,
	"ecmascript":            true,
	"x-www-form-urlencoded": true,
	"graphql":               true,
	"hal+json":              true,
	"yaml":                  true,
	"x-yaml":                true,
}

type ContentType struct {
	MainType   string
	SubType    string
	Suffix     string
	Attributes map[string]string
}

func Parse(s string) (ContentType, error) {
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		return ContentType{}, errors.Wrapf(err, "unable to parse content type %q", s)
	}
	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ContentType{}, errors.Errorf("unable to parse content type %q", s)
	}
	ct := ContentType{MainType: parts[0], SubType: parts[1], Attributes: params}
	if i := strings.LastIndex(ct.SubType, "+"); i > 0 {
		ct.Suffix = ct.SubType[i+1:]
	}
	return ct, nil
}

func MustParse(s string) ContentType {
	ct, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ct
}

// Default is the content type assumed for bodies without one.
func Default() ContentType {
	return Text
}

func (c ContentType) IsJSON() bool {
	return c.MainType == "application" && (c.SubType == "json" || c.Suffix == "json" || c.SubType == "x-json")
}

func (c ContentType) IsXML() bool {
	return (c.MainType == "application" || c.MainType == "text") && (c.SubType == "xml" || c.Suffix == "xml")
}

func (c ContentType) IsText() bool {
	return c.MainType == "text" || c.IsJSON() || c.IsXML() || (c.MainType == "application" && textSubTypes[c.SubType])
}

func (c ContentType) IsBinary() bool {
	switch c.MainType {
	case "audio", "font", "image", "video":
		return true
	case "application":
		return !c.IsText()
	}
	return false
}

func (c ContentType) BaseType() string {
	return c.MainType + "/" + c.SubType
}

func (c ContentType) String() string {
	if len(c.Attributes) == 0 {
		return c.BaseType()
	}
	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(c.BaseType())
	for _, k := range keys {
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(c.Attributes[k])
	}
	return b.String()
}
