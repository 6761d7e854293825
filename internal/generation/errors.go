package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when image generation fails for any
	// general reason
	ErrGenerationFailed = errors.New("failed to generate images")

	// ErrInvalidResponse is returned when the service response cannot be
	// parsed or matches neither expected contract. Permanent; not retried.
	ErrInvalidResponse = errors.New("invalid response from generation service")

	// ErrNoImageReferences is returned in image-to-image mode when the
	// conversational response contains no extractable image URLs. Permanent;
	// this mode has no fallback.
	ErrNoImageReferences = errors.New("no image references in response")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// maxBodyExcerpt bounds how much of an error response body is carried in
// error messages and task records.
const maxBodyExcerpt = 500

// ExternalServiceError captures a non-2xx response from the generation
// service, carrying the status code and an excerpt of the body.
type ExternalServiceError struct {
	StatusCode int
	Body       string
}

// NewExternalServiceError builds an ExternalServiceError, truncating the
// body to a bounded excerpt.
func NewExternalServiceError(statusCode int, body string) *ExternalServiceError {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return &ExternalServiceError{StatusCode: statusCode, Body: body}
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target matches the generic generation failure, so
// callers can test errors.Is(err, ErrGenerationFailed) without knowing the
// concrete type.
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrGenerationFailed
}
