package domain

import (
	"fmt"
	"strings"
)

// Settings is the immutable endpoint/credential/model bundle captured when a
// task is created. A later configuration change never affects an in-flight
// or queued task because workers only ever read this snapshot.
type Settings struct {
	// BaseURL is the generation service endpoint, without a trailing slash.
	BaseURL string

	// APIKey authenticates requests against the generation service.
	APIKey string

	// Model names the generation model to request.
	Model string

	// Proxy is an optional HTTP proxy URL for all calls made on behalf of
	// the task, downloads included.
	Proxy string

	// MaxConcurrent bounds concurrent downloads within one batch.
	MaxConcurrent int
}

// Validate checks that the snapshot carries the values execution depends on.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfiguration)
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfiguration)
	}
	return nil
}
