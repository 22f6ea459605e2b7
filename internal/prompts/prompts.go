package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogYAML []byte

type Prompt struct {
	System       string `yaml:"system"`
	User         string `yaml:"user"`
	FallbackText string `yaml:"fallback_text,omitempty"`
}

// Render substitutes {{key}} placeholders in the user template.
func (p Prompt) Render(vars map[string]string) string {
	out := p.User
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return strings.TrimSpace(out)
}

type Catalog struct {
	QuizGeneration Prompt `yaml:"quiz_generation"`
	Summary        Prompt `yaml:"summary"`
	OralSummary    Prompt `yaml:"oral_summary"`
	Scientific     Prompt `yaml:"scientific"`
	OralEvaluation Prompt `yaml:"oral_evaluation"`
}

// Load parses the embedded catalogue.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for name, p := range map[string]Prompt{
		"quiz_generation": c.QuizGeneration,
		"summary":         c.Summary,
		"oral_summary":    c.OralSummary,
		"scientific":      c.Scientific,
		"oral_evaluation": c.OralEvaluation,
	} {
		if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %q is incomplete", name)
		}
	}
	return &c, nil
}

// MustLoad is for process startup and tests; the catalogue is compiled in.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}
