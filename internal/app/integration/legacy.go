package integration

import (
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/form3tech-oss/pact-builder/internal/app/matchers"
	"github.com/form3tech-oss/pact-builder/internal/app/paths"
)

// legacy handles the json_class matchers written by the v2 pact DSLs, e.g.
// {"json_class": "Pact::SomethingLike", "contents": 10}.
func (w *walker) legacy(class string, obj map[string]interface{}, path paths.Path) interface{} {
	switch class {
	case "Pact::SomethingLike":
		w.rules.AddRule(path, matchers.NewRule("type", nil), matchers.And)
		return w.value(obj["contents"], path)

	case "Pact::Term":
		data, _ := obj["data"].(map[string]interface{})
		generate := data["generate"]
		matcher, _ := data["matcher"].(map[string]interface{})
		pattern, ok := matcher["s"].(string)
		if !ok {
			log.Warnf("ignoring Pact::Term at %s without a regex", path)
			return generate
		}
		if _, err := regexp.Compile(pattern); err != nil {
			log.Warnf("ignoring Pact::Term at %s with invalid regex %q: %s", path, pattern, err)
			return generate
		}
		w.rules.AddRule(path, matchers.NewRule("regex", map[string]interface{}{"regex": pattern}), matchers.And)
		return generate

	case "Pact::ArrayLike":
		min := 1
		if v, ok := obj["min"]; ok {
			if n, err := toInt(v); err == nil && n > 0 {
				min = n
			}
		}
		w.rules.AddRule(path, matchers.NewRule("type", map[string]interface{}{"min": min}), matchers.And)
		return replicate(w.value(obj["contents"], path.StarIndex()), min)
	}

	log.Warnf("ignoring unknown json_class %q at %s", class, path)
	return obj
}
