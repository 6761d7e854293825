// Package download materializes generated images to the artifact root,
// fetching URL sources under bounded concurrency with per-item retry and
// decoding embedded payloads fail-fast.
package download

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/pverel/imageforge-api/internal/telemetry"
)

// Common errors returned by the download package.
var (
	// ErrDownloadFailed is returned when a URL fetch exhausts its retry
	// budget or responds with a non-2xx status.
	ErrDownloadFailed = errors.New("download failed")

	// ErrInvalidPayload is returned when an embedded payload cannot be
	// decoded. Permanent; malformed data never improves on retry.
	ErrInvalidPayload = errors.New("invalid embedded image payload")

	// ErrUnsafePath is returned when a target path would resolve outside
	// the artifact root. Permanent.
	ErrUnsafePath = errors.New("artifact path escapes output root")
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	defaultExtension   = "jpg"
)

// Source describes one image to materialize: either a URL to fetch or an
// embedded base64 payload. Exactly one field is set.
type Source struct {
	URL  string
	Data string
}

// Saver writes generated images into the artifact root.
type Saver struct {
	outputRoot  string
	client      *http.Client
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures a Saver.
type Option func(*Saver)

// WithMaxAttempts overrides the per-URL attempt budget.
func WithMaxAttempts(n int) Option { return func(s *Saver) { s.maxAttempts = n } }

// WithRetryDelay overrides the fixed inter-attempt delay.
func WithRetryDelay(d time.Duration) Option { return func(s *Saver) { s.retryDelay = d } }

// NewSaver constructs a Saver rooted at outputRoot. A nil client falls back
// to http.DefaultClient; pass a proxy-aware client when the task settings
// carry one.
func NewSaver(outputRoot string, client *http.Client, logger *slog.Logger, opts ...Option) *Saver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Saver{
		outputRoot:  outputRoot,
		client:      client,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveBatch materializes all sources and returns their filenames in input
// order. At most concurrency fetches run at once. The batch is
// all-or-nothing: the first permanent failure or exhausted retry budget
// fails the call and cancels the remaining fetches; no partial artifact set
// is reported.
func (s *Saver) SaveBatch(ctx context.Context, sources []Source, concurrency int) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	if err := os.MkdirAll(s.outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output root: %w", err)
	}

	// One shared prefix per batch; the ordinal suffix preserves input order
	// in the names even though completion order is arbitrary.
	prefix := fmt.Sprintf("%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.NewString()[:8])

	filenames := make([]string, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range sources {
		g.Go(func() error {
			name, err := s.saveOne(ctx, src, prefix, i+1)
			if err != nil {
				return err
			}
			filenames[i] = name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filenames, nil
}

func (s *Saver) saveOne(ctx context.Context, src Source, prefix string, ordinal int) (string, error) {
	telemetry.DownloadsInFlight.Inc()
	defer telemetry.DownloadsInFlight.Dec()

	if src.Data != "" {
		return s.saveEmbedded(src.Data, prefix, ordinal)
	}
	return s.saveURL(ctx, src.URL, prefix, ordinal)
}

// saveEmbedded decodes a base64 payload and writes it. Pure and fail-fast:
// a malformed payload is a permanent failure.
func (s *Saver) saveEmbedded(data, prefix string, ordinal int) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	filename := fmt.Sprintf("%s_%d.png", prefix, ordinal)
	if err := s.write(filename, raw); err != nil {
		return "", err
	}

	s.logger.Debug("saved embedded image", "filename", filename)
	return filename, nil
}

// saveURL fetches the image with a bounded number of attempts and a fixed
// inter-attempt delay before giving up.
func (s *Saver) saveURL(ctx context.Context, rawURL, prefix string, ordinal int) (string, error) {
	var body []byte
	var contentType string

	backoff := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewConstant(s.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, ct, err := s.fetch(ctx, rawURL)
		if err != nil {
			telemetry.DownloadRetries.Inc()
			s.logger.Warn("image download attempt failed",
				"url", rawURL,
				"error", err)
			return retry.RetryableError(err)
		}
		body = b
		contentType = ct
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, rawURL, err)
	}

	filename := fmt.Sprintf("%s_%d.%s", prefix, ordinal, extensionFor(contentType, rawURL))
	if err := s.write(filename, body); err != nil {
		return "", err
	}

	s.logger.Debug("saved downloaded image", "filename", filename, "url", rawURL)
	return filename, nil
}

func (s *Saver) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// write persists the bytes after validating the target resolves inside the
// output root. Any traversal attempt is a permanent failure.
func (s *Saver) write(filename string, data []byte) error {
	path, err := s.SafePath(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// SafePath joins filename onto the output root and verifies the result stays
// inside it.
func (s *Saver) SafePath(filename string) (string, error) {
	root, err := filepath.Abs(s.outputRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output root: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(root, filename))
	if err != nil {
		return "", fmt.Errorf("failed to resolve artifact path: %w", err)
	}
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, filename)
	}
	return path, nil
}

// extensionFor derives the file extension from the response content type,
// falling back to the URL suffix, falling back to a default.
func extensionFor(contentType, rawURL string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	}

	u := strings.ToLower(rawURL)
	switch {
	case strings.HasSuffix(u, ".jpg"), strings.HasSuffix(u, ".jpeg"):
		return "jpg"
	case strings.HasSuffix(u, ".png"):
		return "png"
	case strings.HasSuffix(u, ".webp"):
		return "webp"
	}

	return defaultExtension
}
