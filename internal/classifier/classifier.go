// Package classifier wraps the optional external model-classification
// service. Every call site has a deterministic geometric fallback, so the
// pipeline output shape never depends on the service being reachable.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avatarforge/autorig/pkg/analyze"
	"github.com/avatarforge/autorig/pkg/container"
)

// ErrUnavailable signals that the external service could not be used.
// It is not a pipeline error: callers substitute the geometric fallback
// and log at most a diagnostic.
var ErrUnavailable = errors.New("classifier unavailable")

const defaultTimeout = 5 * time.Second

// Config captures the runtime settings required to talk to the service.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Result is a classification outcome. The shape is identical whether it
// came from the remote service or the local fallback.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Client performs single-attempt, bounded-timeout scoring calls.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client, useful for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a classifier client. A nil return means no service
// is configured and callers should go straight to the fallback.
func NewClient(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score submits a model descriptor for classification. One attempt, no
// retries; any transport or decode failure maps to ErrUnavailable.
func (c *Client) Score(ctx context.Context, descriptor string) (Result, error) {
	if c == nil {
		return Result{}, ErrUnavailable
	}

	payload, err := json.Marshal(map[string]string{"descriptor": descriptor})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}

// Fallback derives a classification from geometry alone. It is at least
// as restrictive as the analyzer's score and fully deterministic.
func Fallback(a *analyze.Analysis) Result {
	label := "prop"
	if a.HumanoidConfidence >= 0.5 {
		label = "humanoid"
	}
	return Result{Label: label, Confidence: a.HumanoidConfidence}
}

// Describe builds the compact text descriptor submitted to the service.
// It reads the raw document, not the analysis, so scoring can run
// concurrently with the structural analyzer.
func Describe(doc *container.Document) string {
	return fmt.Sprintf("meshes=%d materials=%d nodes=%d textures=%d skeleton=%t animated=%t",
		len(doc.Meshes), len(doc.Materials), len(doc.Nodes), len(doc.Textures),
		doc.HasSkeleton(), len(doc.Animations) > 0)
}
