package config

import (
	"fmt"
	"strings"

	"github.com/pverel/imageforge-api/internal/domain"
)

// DefaultModel is requested when a config entry does not name one.
const DefaultModel = "grok-imagine-1.0"

const (
	maxConcurrentFloor   = 1
	maxConcurrentCeiling = 10
)

// ClampedMaxConcurrent returns the configured concurrency bound clamped
// to [1, 10].
func (g GenerationConfig) ClampedMaxConcurrent() int {
	n := g.MaxConcurrent
	if n < maxConcurrentFloor {
		return maxConcurrentFloor
	}
	if n > maxConcurrentCeiling {
		return maxConcurrentCeiling
	}
	return n
}

// Select returns the named config entry, the default entry when name is
// empty, or domain.ErrConfiguration when the name is unknown or no entries
// exist.
func (g GenerationConfig) Select(name string) (APIConfig, error) {
	if len(g.Configs) == 0 {
		return APIConfig{}, fmt.Errorf("%w: no generation configs available", domain.ErrConfiguration)
	}
	if name == "" {
		name = g.Default
	}
	if name == "" {
		return g.Configs[0], nil
	}
	for _, c := range g.Configs {
		if c.Name == name {
			return c, nil
		}
	}
	return APIConfig{}, fmt.Errorf("%w: unknown config %q", domain.ErrConfiguration, name)
}

// Resolve produces the immutable settings snapshot for the named config
// entry. The snapshot carries everything a worker needs so execution never
// reads live configuration.
func (g GenerationConfig) Resolve(name string) (domain.Settings, error) {
	entry, err := g.Select(name)
	if err != nil {
		return domain.Settings{}, err
	}

	model := entry.Model
	if model == "" {
		model = DefaultModel
	}

	settings := domain.Settings{
		BaseURL:       strings.TrimRight(entry.BaseURL, "/"),
		APIKey:        entry.APIKey,
		Model:         model,
		Proxy:         entry.Proxy,
		MaxConcurrent: g.ClampedMaxConcurrent(),
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("config %q: %w", entry.Name, err)
	}
	return settings, nil
}

// Summary is the API-safe view of one config entry; credentials are never
// included.
type Summary struct {
	Name          string `json:"name"`
	BaseURL       string `json:"base_url"`
	Model         string `json:"model"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// Summaries returns the API-safe view of all config entries together with
// the effective default entry name.
func (g GenerationConfig) Summaries() ([]Summary, string) {
	summaries := make([]Summary, 0, len(g.Configs))
	for _, c := range g.Configs {
		model := c.Model
		if model == "" {
			model = DefaultModel
		}
		summaries = append(summaries, Summary{
			Name:          c.Name,
			BaseURL:       strings.TrimRight(c.BaseURL, "/"),
			Model:         model,
			MaxConcurrent: g.ClampedMaxConcurrent(),
		})
	}
	defaultName := g.Default
	if defaultName == "" && len(summaries) > 0 {
		defaultName = summaries[0].Name
	}
	return summaries, defaultName
}
