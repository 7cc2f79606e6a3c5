package config

import (
	"strings"

	"github.com/logflow/alphaminer/pkg/errors"
)

// Algorithm names a discovery algorithm.
type Algorithm uint8

const (
	AlgorithmAlpha Algorithm = iota
	AlgorithmAlphaPlus
	AlgorithmAlphaPlusPlus
	AlgorithmAlphaSharp
)

var algorithmNames = map[Algorithm]string{
	AlgorithmAlpha:         "alpha",
	AlgorithmAlphaPlus:     "alpha+",
	AlgorithmAlphaPlusPlus: "alpha++",
	AlgorithmAlphaSharp:    "alpha#",
}

var algorithmAliases = map[string]Algorithm{
	"alpha":           AlgorithmAlpha,
	"classic":         AlgorithmAlpha,
	"alpha+":          AlgorithmAlphaPlus,
	"alpha-plus":      AlgorithmAlphaPlus,
	"alphaplus":       AlgorithmAlphaPlus,
	"alpha++":         AlgorithmAlphaPlusPlus,
	"alpha-plus-plus": AlgorithmAlphaPlusPlus,
	"nfc":             AlgorithmAlphaPlusPlus,
	"alpha#":          AlgorithmAlphaSharp,
	"alpha-sharp":     AlgorithmAlphaSharp,
	"sharp":           AlgorithmAlphaSharp,
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAlgorithm accepts the canonical names and a few spelled-out aliases,
// case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	if a, ok := algorithmAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return 0, errors.UnknownAlgorithm(s)
}
