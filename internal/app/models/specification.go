package models

import (
	"strings"

	"github.com/pkg/errors"
)

// PactSpecification is the version of the pact file format.
type PactSpecification int

const (
	SpecUnknown PactSpecification = iota
	SpecV1
	SpecV1_1
	SpecV2
	SpecV3
	SpecV4
)

func (s PactSpecification) String() string {
	switch s {
	case SpecV1:
		return "V1"
	case SpecV1_1:
		return "V1.1"
	case SpecV2:
		return "V2"
	case SpecV3:
		return "V3"
	case SpecV4:
		return "V4"
	default:
		return "unknown"
	}
}

// VersionString is the value written to metadata.pactSpecification.version.
func (s PactSpecification) VersionString() string {
	switch s {
	case SpecV1:
		return "1.0.0"
	case SpecV1_1:
		return "1.1.0"
	case SpecV2:
		return "2.0.0"
	case SpecV4:
		return "4.0"
	default:
		return "3.0.0"
	}
}

func ParseSpecification(s string) (PactSpecification, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "V") {
	case "1", "1.0", "1.0.0":
		return SpecV1, nil
	case "1.1", "1.1.0":
		return SpecV1_1, nil
	case "2", "2.0", "2.0.0":
		return SpecV2, nil
	case "3", "3.0", "3.0.0":
		return SpecV3, nil
	case "4", "4.0", "4.0.0":
		return SpecV4, nil
	}
	return SpecUnknown, errors.Errorf("unknown pact specification version %q", s)
}
