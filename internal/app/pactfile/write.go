package pactfile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/form3tech-oss/pact-builder/internal/app/models"
)

const specVersionPath = "metadata.pactSpecification.version"

// writeLock serialises read-merge-write cycles on pact files in this process.
var writeLock sync.Mutex

func Marshal(pact *models.Pact, spec models.PactSpecification) ([]byte, error) {
	doc, err := Render(pact, spec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "unable to encode pact")
	}
	return pretty.Pretty(buf.Bytes()), nil
}

// FilePath returns where the pact is written for dir. An empty dir means the
// current working directory.
func FilePath(dir string, pact *models.Pact) string {
	if dir == "" {
		return pact.DefaultFileName()
	}
	return filepath.Join(dir, pact.DefaultFileName())
}

// WriteFile writes the pact to filename. Unless overwrite is set, an existing
// file is merged with the pact rather than replaced.
func WriteFile(filename string, pact *models.Pact, spec models.PactSpecification, overwrite bool) error {
	DanglingRules(pact)

	data, err := Marshal(pact, spec)
	if err != nil {
		return err
	}

	writeLock.Lock()
	defer writeLock.Unlock()

	if !overwrite {
		existing, err := os.ReadFile(filename)
		switch {
		case err == nil:
			data, err = Merge(existing, data)
			if err != nil {
				return errors.Wrapf(err, "unable to merge with existing pact file %s", filename)
			}
		case !os.IsNotExist(err):
			return errors.Wrapf(err, "unable to read existing pact file %s", filename)
		}
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "unable to create directory %s", dir)
		}
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write pact file %s", filename)
	}

	log.WithFields(log.Fields{
		"file":         filename,
		"interactions": len(pact.Interactions),
		"spec":         spec,
	}).Info("pact file written")
	return nil
}

// Merge combines an existing pact file with a newly rendered one. Interactions
// with the same description and provider states are replaced, the rest of the
// existing ones are kept. Both documents must use the same specification
// version.
func Merge(existing, updated []byte) ([]byte, error) {
	if !gjson.ValidBytes(existing) {
		return nil, errors.New("existing pact file is not valid JSON")
	}
	if !gjson.ValidBytes(updated) {
		return nil, errors.New("pact is not valid JSON")
	}

	existingVersion := gjson.GetBytes(existing, specVersionPath).String()
	updatedVersion := gjson.GetBytes(updated, specVersionPath).String()
	if existingVersion != "" && existingVersion != updatedVersion {
		return nil, errors.Errorf("existing pact file has specification version %s, not %s", existingVersion, updatedVersion)
	}

	merged := updated
	for _, key := range []string{"interactions", "messages"} {
		previous := gjson.GetBytes(existing, key)
		if !previous.Exists() {
			continue
		}
		current := gjson.GetBytes(updated, key)

		raw := mergeInteractions(previous.Array(), current.Array())
		var err error
		merged, err = sjson.SetRawBytes(merged, key, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to merge %s", key)
		}
	}
	return pretty.Pretty(merged), nil
}

func mergeInteractions(previous, current []gjson.Result) []byte {
	replacements := make(map[string]gjson.Result, len(current))
	for _, interaction := range current {
		replacements[interactionKey(interaction)] = interaction
	}

	raws := make([]string, 0, len(previous)+len(current))
	used := map[string]bool{}
	for _, interaction := range previous {
		key := interactionKey(interaction)
		if replacement, ok := replacements[key]; ok {
			raws = append(raws, replacement.Raw)
			used[key] = true
			continue
		}
		raws = append(raws, interaction.Raw)
	}
	for _, interaction := range current {
		if !used[interactionKey(interaction)] {
			raws = append(raws, interaction.Raw)
		}
	}
	return []byte("[" + strings.Join(raws, ",") + "]")
}

// interactionKey identifies an interaction by description and provider
// states, ignoring formatting.
func interactionKey(interaction gjson.Result) string {
	states := interaction.Get("providerStates")
	if !states.Exists() {
		states = interaction.Get("providerState")
	}
	return interaction.Get("description").String() + "\x00" + string(pretty.Ugly([]byte(states.Raw)))
}
