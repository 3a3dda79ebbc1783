// Package dex fetches short descriptive entries for combatants from the
// Gemini generateContent API.
package dex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samdwyer/battleclock/internal/telemetry"
)

const (
	DefaultEndpoint   = "https://generativelanguage.googleapis.com"
	DefaultModel      = "gemini-2.0-flash"
	DefaultTimeout    = 20 * time.Second
	DefaultMaxRetries = 2

	// textPath locates the entry text in a generateContent response.
	textPath = "candidates.0.content.parts.0.text"

	promptTemplate = "Give a very brief, 1-sentence Pokedex entry for %s, similar to what would be found in a Gen 1 Pokémon game. Focus on a key characteristic."
)

var (
	// ErrNoEntry means the service answered but carried no entry text.
	ErrNoEntry = errors.New("response carried no entry text")

	// ErrMissingAPIKey means no credential was configured.
	ErrMissingAPIKey = errors.New("dex API key not set")

	errMalformed = errors.New("malformed response body")
)

// StatusError is a non-success HTTP answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dex service error: %d %s", e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	Endpoint   string
	Model      string
	APIKey     string
	Timeout    time.Duration // Per fetch, covering every retry
	MaxRetries uint          // Retries after the first attempt
}

// Client fetches entries, deduplicating concurrent requests for the same
// name and caching successful answers.
type Client struct {
	cfg        Config
	http       *http.Client
	log        logr.Logger
	newBackOff func() backoff.BackOff

	group singleflight.Group
	mu    sync.RWMutex
	cache map[uint64]string
}

// NewClient creates a client, filling unset fields with defaults.
func NewClient(cfg Config, httpClient *http.Client, log logr.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:        cfg,
		http:       httpClient,
		log:        log,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		cache:      make(map[uint64]string),
	}
}

// Prompt returns the request text sent for name.
func Prompt(name string) string {
	return fmt.Sprintf(promptTemplate, name)
}

func cacheKey(name string) uint64 {
	return xxhash.Sum64String(strings.ToLower(strings.TrimSpace(name)))
}

// Describe returns the entry for name. Concurrent calls for the same name
// share one upstream request.
func (c *Client) Describe(ctx context.Context, name string) (string, error) {
	tracer := telemetry.Tracer("dex")
	ctx, span := tracer.Start(ctx, "dex.fetch")
	defer span.End()

	key := cacheKey(name)
	span.SetAttributes(attribute.String("name", name))

	if text, ok := c.cached(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return text, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	if c.cfg.APIKey == "" {
		span.SetStatus(codes.Error, "missing api key")
		return "", ErrMissingAPIKey
	}

	ch := c.group.DoChan(fmt.Sprintf("%016x", key), func() (any, error) {
		// Detached so one caller giving up doesn't fail the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		return c.fetch(fetchCtx, name)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		span.SetAttributes(attribute.Bool("shared", res.Shared))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "fetch failed")
			c.log.Error(res.Err, "entry fetch failed", "name", name, "no_entry", errors.Is(res.Err, ErrNoEntry))
			return "", res.Err
		}
		text := res.Val.(string)
		c.store(key, text)
		return text, nil
	}
}

func (c *Client) cached(key uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.cache[key]
	return text, ok
}

func (c *Client) store(key uint64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = text
}

// fetch performs the request with exponential backoff on transient failures.
func (c *Client) fetch(ctx context.Context, name string) (string, error) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		return c.request(ctx, name)
	}
	notify := func(err error, wait time.Duration) {
		c.log.V(1).Info("entry request failed, retrying", "name", name, "attempt", attempts, "wait", wait, "err", err.Error())
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
		backoff.WithNotify(notify),
	)
	c.log.V(1).Info("entry fetch finished", "name", name, "attempts", attempts, "ok", err == nil)
	return text, err
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// request makes one generateContent call. Errors that retrying can't fix
// are marked permanent.
func (c *Client) request(ctx context.Context, name string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt(name)}}}},
	})
	if err != nil {
		return "", backoff.Permanent(err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.Endpoint, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", statusErr
		}
		// A JSON answer without an entry reads as "no entry"; anything else
		// is a service failure.
		if gjson.ValidBytes(raw) && !gjson.GetBytes(raw, textPath).Exists() {
			return "", backoff.Permanent(fmt.Errorf("%w: %w", ErrNoEntry, statusErr))
		}
		return "", backoff.Permanent(statusErr)
	}

	if !gjson.ValidBytes(raw) {
		return "", backoff.Permanent(errMalformed)
	}
	text := strings.TrimSpace(gjson.GetBytes(raw, textPath).String())
	if text == "" {
		return "", backoff.Permanent(ErrNoEntry)
	}
	return text, nil
}
