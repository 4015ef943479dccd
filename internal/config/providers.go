package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderSpec is one entry of the ordered failover list.
type ProviderSpec struct {
	Name       string `yaml:"name"` // gemini | gpt | deepseek
	Model      string `yaml:"model,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
}

// Providers is the optional YAML-configured chain layout. Order in the file
// is the failover order.
type Providers struct {
	Providers   []ProviderSpec `yaml:"providers"`
	OCRFallback bool           `yaml:"ocr_fallback"`
}

var knownProviders = map[string]bool{"gemini": true, "gpt": true, "deepseek": true}

// DefaultProviders is used when no PROVIDERS_FILE is given: fastest and
// cheapest first, OCR last.
func DefaultProviders() *Providers {
	return &Providers{
		Providers: []ProviderSpec{
			{Name: "gemini"},
			{Name: "gpt"},
			{Name: "deepseek"},
		},
		OCRFallback: true,
	}
}

// LoadProviders reads and validates the provider-order file.
func LoadProviders(path string) (*Providers, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var p Providers
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	if len(p.Providers) == 0 {
		return nil, fmt.Errorf("providers file %s lists no providers", path)
	}
	for i, spec := range p.Providers {
		if !knownProviders[spec.Name] {
			return nil, fmt.Errorf("providers file %s entry %d: unknown provider %q", path, i, spec.Name)
		}
		if spec.TimeoutSec < 0 {
			return nil, fmt.Errorf("providers file %s entry %d: negative timeout", path, i)
		}
	}
	return &p, nil
}
