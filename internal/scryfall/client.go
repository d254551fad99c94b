// Package scryfall is a small client for the Scryfall card search API.
package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/arcanaland/cardsync/internal/card"
)

const (
	// DefaultBaseURL is the public Scryfall API.
	DefaultBaseURL = "https://api.scryfall.com"

	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = 2 * time.Second
	// Scryfall asks clients to stay around 10 requests per second.
	requestInterval = 100 * time.Millisecond
	userAgent       = "cardsync/1.0"
)

// ErrNotFound is returned by Named when no card matches.
var ErrNotFound = errors.New("scryfall: card not found")

// APIError is a non-success response from Scryfall.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Details string `json:"details"`
	URL     string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scryfall: HTTP %d %s: %s", e.Status, e.Code, e.Details)
	}
	return fmt.Sprintf("scryfall: HTTP %d", e.Status)
}

// Client talks to the Scryfall API. Requests are paced by Limiter, and a 429
// response is retried after RetryDelay until it stops or ctx ends.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Limiter    *rate.Limiter
	RetryDelay time.Duration

	logger *log.Logger
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
// A nil logger uses the default logger.
func NewClient(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTP:       &http.Client{Timeout: defaultTimeout},
		Limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		RetryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

type listResponse struct {
	Data     []card.Raw `json:"data"`
	HasMore  bool       `json:"has_more"`
	NextPage string     `json:"next_page"`
}

// FetchSet returns every printing in the set with the given code.
func (c *Client) FetchSet(ctx context.Context, code string) ([]card.Raw, error) {
	return c.search(ctx, "set:"+strings.ToLower(strings.TrimSpace(code)))
}

// SearchPrints returns every printing whose name is exactly name,
// restricted to set when set is non-empty.
func (c *Client) SearchPrints(ctx context.Context, name, set string) ([]card.Raw, error) {
	q := fmt.Sprintf(`!"%s"`, strings.TrimSpace(name))
	if set != "" {
		q += " set:" + strings.ToLower(set)
	}
	return c.search(ctx, q)
}

// Named looks up a single card by exact (or fuzzy) name.
func (c *Client) Named(ctx context.Context, name, set string, fuzzy bool) (card.Raw, error) {
	params := url.Values{}
	if fuzzy {
		params.Set("fuzzy", name)
	} else {
		params.Set("exact", name)
	}
	if set != "" {
		params.Set("set", strings.ToLower(set))
	}

	var raw card.Raw
	status, body, err := c.get(ctx, c.BaseURL+"/cards/named?"+params.Encode())
	if err != nil {
		return raw, err
	}
	if status == http.StatusNotFound {
		return raw, ErrNotFound
	}
	if status != http.StatusOK {
		return raw, apiError(status, body, "/cards/named")
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return raw, fmt.Errorf("scryfall: decode card: %w", err)
	}
	return raw, nil
}

// Download fetches an image (or any other asset) Scryfall links to.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	status, body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, URL: rawURL}
	}
	return body, nil
}

// search walks every page of a /cards/search query. A 404 means no matches.
func (c *Client) search(ctx context.Context, q string) ([]card.Raw, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("unique", "prints")
	next := c.BaseURL + "/cards/search?" + params.Encode()

	var out []card.Raw
	for page := 1; next != ""; page++ {
		status, body, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			break
		}
		if status != http.StatusOK {
			return nil, apiError(status, body, next)
		}

		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("scryfall: decode page %d: %w", page, err)
		}
		out = append(out, resp.Data...)
		c.logger.Debug("scryfall page", "q", q, "page", page, "cards", len(resp.Data))

		next = ""
		if resp.HasMore {
			next = resp.NextPage
		}
	}
	return out, nil
}

// get performs a paced GET, sleeping and retrying while Scryfall answers 429.
func (c *Client) get(ctx context.Context, rawURL string) (int, []byte, error) {
	for {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return 0, nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("scryfall: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("scryfall: request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("scryfall: read body: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp.StatusCode, body, nil
		}

		c.logger.Warn("scryfall rate limited, retrying", "delay", c.RetryDelay)
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
}

func apiError(status int, body []byte, rawURL string) error {
	e := &APIError{Status: status, URL: rawURL}
	_ = json.Unmarshal(body, e)
	e.Status = status
	return e
}
