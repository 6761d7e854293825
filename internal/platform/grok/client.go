// Package grok implements the generation.Generator interface against
// OpenAI-compatible image generation endpoints such as Grok's. It owns the
// request-shape selection (batch text-to-image versus conversational
// image-to-image), the inline-to-URL format fallback, and handing the
// resulting sources to the download package for materialization.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/download"
	"github.com/pverel/imageforge-api/internal/generation"
)

const (
	imagesPath = "/v1/images/generations"
	chatPath   = "/v1/chat/completions"

	defaultTimeout = 300 * time.Second
)

// imageURLPattern extracts image links from conversational response text.
// The character class stops at markdown and quoting delimiters so URLs
// embedded in markdown image syntax are captured cleanly.
var imageURLPattern = regexp.MustCompile(`https?://[^\s"'<>()\[\]]+`)

// Client calls the external generation service and saves the produced
// images under the artifact root.
type Client struct {
	outputRoot   string
	logger       *slog.Logger
	timeout      time.Duration
	httpClient   *http.Client
	downloadOpts []download.Option
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout used for constructed HTTP
// clients.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithHTTPClient pins the HTTP client instead of building one per call from
// the task settings. Proxy settings are ignored when this is set.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithDownloadOptions passes options through to the download.Saver used for
// materializing results.
func WithDownloadOptions(opts ...download.Option) Option {
	return func(c *Client) { c.downloadOpts = opts }
}

// NewClient creates a Client that saves artifacts under outputRoot.
func NewClient(outputRoot string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		outputRoot: outputRoot,
		logger:     logger,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate implements generation.Generator. The task's settings snapshot
// supplies the endpoint, credentials, model and optional proxy; a reference
// image on the task selects the conversational image-to-image mode.
func (c *Client) Generate(ctx context.Context, task *domain.Task) ([]string, error) {
	hc, err := c.clientFor(task.Settings.Proxy)
	if err != nil {
		return nil, err
	}
	saver := download.NewSaver(c.outputRoot, hc, c.logger, c.downloadOpts...)

	if task.ReferenceImage != "" {
		return c.generateFromReference(ctx, hc, saver, task)
	}
	return c.generateBatch(ctx, hc, saver, task)
}

// imageDatum is one entry of the batch endpoint's data array. Exactly one
// of the fields is populated depending on the response format.
type imageDatum struct {
	B64JSON string `json:"b64_json"`
	URL     string `json:"url"`
}

type imageResponse struct {
	Data []imageDatum `json:"data"`
}

// generateBatch drives the text-to-image endpoint. Inline-encoded responses
// are requested first; on failure the request is repeated once asking for
// URL-based responses before giving up.
func (c *Client) generateBatch(
	ctx context.Context,
	hc *http.Client,
	saver *download.Saver,
	task *domain.Task,
) ([]string, error) {
	settings := task.Settings
	endpoint := settings.BaseURL + imagesPath

	payload := map[string]any{
		"model":           settings.Model,
		"prompt":          task.Prompt,
		"n":               task.Count,
		"stream":          false,
		"size":            "1024x1024",
		"quality":         "standard",
		"response_format": "b64_json",
	}

	c.logger.Info("generating images",
		"count", task.Count,
		"model", settings.Model,
		"task_id", task.ID)

	sources, err := c.requestImages(ctx, hc, endpoint, settings.APIKey, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		c.logger.Warn("inline response format failed, retrying with url format",
			"task_id", task.ID,
			"error", err)

		payload["response_format"] = "url"
		sources, err = c.requestImages(ctx, hc, endpoint, settings.APIKey, payload)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			if src.URL == "" {
				return nil, fmt.Errorf("%w: url format fallback returned no urls",
					generation.ErrInvalidResponse)
			}
		}
	}

	return saver.SaveBatch(ctx, sources, settings.MaxConcurrent)
}

// requestImages performs one batch request and converts the data array into
// download sources. The first entry decides the shape: inline payloads and
// URLs are never mixed within one response.
func (c *Client) requestImages(
	ctx context.Context,
	hc *http.Client,
	endpoint, apiKey string,
	payload map[string]any,
) ([]download.Source, error) {
	raw, err := c.post(ctx, hc, endpoint, apiKey, payload)
	if err != nil {
		return nil, err
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: no image data in response", generation.ErrInvalidResponse)
	}

	sources := make([]download.Source, 0, len(parsed.Data))
	switch {
	case parsed.Data[0].B64JSON != "":
		for _, item := range parsed.Data {
			sources = append(sources, download.Source{Data: item.B64JSON})
		}
	case parsed.Data[0].URL != "":
		for _, item := range parsed.Data {
			sources = append(sources, download.Source{URL: item.URL})
		}
	default:
		return nil, fmt.Errorf("%w: unknown response format", generation.ErrInvalidResponse)
	}

	return sources, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// generateFromReference drives the conversational endpoint for
// image-to-image requests. The response text is scanned for image URLs; a
// response without any is a permanent failure, there is no fallback for
// this mode.
func (c *Client) generateFromReference(
	ctx context.Context,
	hc *http.Client,
	saver *download.Saver,
	task *domain.Task,
) ([]string, error) {
	settings := task.Settings
	endpoint := settings.BaseURL + chatPath

	payload := map[string]any{
		"model": settings.Model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": task.Prompt},
					{
						"type":      "image_url",
						"image_url": map[string]any{"url": dataURL(task.ReferenceImage)},
					},
				},
			},
		},
	}

	c.logger.Info("generating image from reference",
		"model", settings.Model,
		"task_id", task.ID)

	raw, err := c.post(ctx, hc, endpoint, settings.APIKey, payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}

	urls := imageURLPattern.FindAllString(parsed.Choices[0].Message.Content, -1)
	if len(urls) == 0 {
		return nil, generation.ErrNoImageReferences
	}

	sources := make([]download.Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, download.Source{URL: u})
	}

	return saver.SaveBatch(ctx, sources, settings.MaxConcurrent)
}

// post sends one JSON request and returns the response body. Non-2xx
// responses become ExternalServiceErrors carrying the status and a body
// excerpt.
func (c *Client) post(
	ctx context.Context,
	hc *http.Client,
	endpoint, apiKey string,
	payload any,
) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, generation.NewExternalServiceError(resp.StatusCode, string(raw))
	}

	return raw, nil
}

// clientFor builds an HTTP client honoring the task's proxy setting, unless
// a pinned client was configured.
func (c *Client) clientFor(proxy string) (*http.Client, error) {
	if c.httpClient != nil {
		return c.httpClient, nil
	}

	transport := &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid proxy url: %v", generation.ErrInvalidConfig, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		c.logger.Info("using proxy for generation requests", "proxy", proxy)
	}

	return &http.Client{Timeout: c.timeout, Transport: transport}, nil
}

// dataURL wraps a bare base64 payload in a data URL; payloads already in
// data URL form pass through unchanged.
func dataURL(encoded string) string {
	if strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	return "data:image/png;base64," + encoded
}
