package config

import (
	"fmt"
	"strings"
)

// Engine family names.
const (
	EngineTesseract = "tesseract"
	EngineEasyOCR   = "easyocr"
	EnginePaddleOCR = "paddleocr"
	EngineSurya     = "surya"
	EngineOllama    = "ollama"
	EngineOpenAI    = "openai"
)

// aliases accepted on the command line
var engineAliases = map[string]string{
	"llama-vision":     EngineOllama,
	"gpt4-vision":      EngineOpenAI,
	"gpt4-vision-mini": EngineOpenAI,
	"paddle":           EnginePaddleOCR,
}

// EngineSpec is one configured engine instance.
//
// The textual form is "name" or "name:lang1+lang2". The full text is the
// instance identifier, so "tesseract" and "tesseract:deu" can run side by side.
type EngineSpec struct {
	ID        string
	Name      string
	Languages []string
}

// ParseEngineSpec parses the textual engine form.
func ParseEngineSpec(raw string) (EngineSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EngineSpec{}, fmt.Errorf("empty engine name")
	}

	name, langs, _ := strings.Cut(raw, ":")
	name = strings.ToLower(name)
	if canonical, ok := engineAliases[name]; ok {
		name = canonical
	}
	if !IsKnownEngine(name) {
		return EngineSpec{}, fmt.Errorf("unknown engine %q", raw)
	}

	spec := EngineSpec{ID: raw, Name: name}
	if langs != "" {
		for _, l := range strings.Split(langs, "+") {
			if l = strings.TrimSpace(l); l != "" {
				spec.Languages = append(spec.Languages, l)
			}
		}
	}
	return spec, nil
}

// IsKnownEngine reports whether name is a canonical engine family.
func IsKnownEngine(name string) bool {
	switch name {
	case EngineTesseract, EngineEasyOCR, EnginePaddleOCR, EngineSurya, EngineOllama, EngineOpenAI:
		return true
	}
	return false
}

// ParseEngineSpecs parses a list of engine forms, rejecting duplicate identifiers.
func ParseEngineSpecs(raw []string) ([]EngineSpec, error) {
	specs := make([]EngineSpec, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		spec, err := ParseEngineSpec(r)
		if err != nil {
			return nil, err
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("engine %q is configured twice", spec.ID)
		}
		seen[spec.ID] = true
		specs = append(specs, spec)
	}
	return specs, nil
}
