package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/codedlook/storefront/internal/domain"
)

const (
	headerAPIKey = "X-Master-Key"

	defaultMaxRetries  = 4
	defaultBaseBackoff = 200 * time.Millisecond
)

var (
	ErrUnavailable = errors.New("remote store unavailable")
	ErrRejected    = errors.New("remote store rejected request")
)

// Client talks to the shared remote document over HTTP. The protocol is
// whole-document GET and whole-document PUT; there is no partial update.
// Another writer can replace the document between our read and write, in
// which case the last successful PUT wins.
type Client struct {
	http        *http.Client
	url         string
	apiKey      string
	maxRetries  int
	baseBackoff time.Duration
	breaker     *gobreaker.CircuitBreaker[*domain.Document]
}

func NewClient(httpClient *http.Client, url, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[*domain.Document](gobreaker.Settings{
		Name:    "remote-store",
		Timeout: 30 * time.Second,
	})

	return &Client{
		http:        httpClient,
		url:         url,
		apiKey:      apiKey,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
		breaker:     breaker,
	}
}

// Pull fetches the current remote document.
func (c *Client) Pull(ctx context.Context) (*domain.Document, error) {
	return c.breaker.Execute(func() (*domain.Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}

		var doc domain.Document
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode remote document: %w", err)
		}
		return &doc, nil
	})
}

// Replace writes the document wholesale, retrying transient failures with
// exponential backoff. A non-retryable status fails immediately. The caller
// keeps its local state either way; a failed push only means the remote
// lags behind until the next attempt.
func (c *Client) Replace(ctx context.Context, doc *domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode remote document: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(c.baseBackoff, attempt-1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, err := c.breaker.Execute(func() (*domain.Document, error) {
			return nil, c.put(ctx, body)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRejected) || errors.Is(err, context.Canceled) {
			return err
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		lastErr = err
		log.Printf("remote replace attempt %d failed: %v", attempt+1, err)
	}

	return fmt.Errorf("remote replace failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) put(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
}

func backoff(base time.Duration, attempt int) time.Duration {
	exp := base * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(exp/2) + 1))
	return exp + jitter
}
