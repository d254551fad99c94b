// Package notion implements the workspace backend on top of the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/arcanaland/cardsync/internal/workspace"
)

const (
	// DefaultBaseURL is the public Notion API.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is the Notion-Version header sent with every request.
	APIVersion = "2022-06-28"

	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = 1200 * time.Millisecond
)

// APIError is a non-success response from Notion. It unwraps to the
// workspace sentinel errors for 401, 403 and 404.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion: HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: HTTP %d", e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return workspace.ErrUnauthorized
	case http.StatusForbidden:
		return workspace.ErrForbidden
	case http.StatusNotFound:
		return workspace.ErrNotFound
	}
	return nil
}

// Client is a Notion API client. Every call is retried once after
// RetryDelay when Notion answers 429.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	RetryDelay time.Duration

	token  string
	logger *log.Logger
}

var _ workspace.Backend = (*Client)(nil)

// NewClient creates a client authenticated with an integration token.
// An empty baseURL means DefaultBaseURL; a nil logger uses the default logger.
func NewClient(token, baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTP:       &http.Client{Timeout: defaultTimeout},
		RetryDelay: defaultRetryDelay,
		token:      token,
		logger:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("notion: encode %s %s: %w", method, path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		status, body, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if status == http.StatusTooManyRequests && attempt == 0 {
			c.logger.Warn("notion rate limited, retrying once", "method", method, "path", path, "delay", c.RetryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.RetryDelay):
			}
			continue
		}
		if status < 200 || status > 299 {
			apiErr := &APIError{}
			_ = json.Unmarshal(body, apiErr)
			apiErr.Status = status
			return apiErr
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("notion: decode %s %s: %w", method, path, err)
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("notion: read body: %w", err)
	}
	return resp.StatusCode, data, nil
}

type textSegment struct {
	PlainText string `json:"plain_text"`
}

type propertyMeta struct {
	Type string `json:"type"`
}

type database struct {
	Object     string                  `json:"object"`
	ID         string                  `json:"id"`
	URL        string                  `json:"url"`
	Title      []textSegment           `json:"title"`
	Properties map[string]propertyMeta `json:"properties"`
}

func (d database) plainTitle() string {
	var b strings.Builder
	for _, seg := range d.Title {
		b.WriteString(seg.PlainText)
	}
	return b.String()
}

func (d database) collection() workspace.Collection {
	return workspace.Collection{ID: d.ID, Title: d.plainTitle(), URL: d.URL}
}

type page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Verify checks the token against /users/me.
func (c *Client) Verify(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil); err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	return nil
}

// CheckParent confirms the integration can open the parent page.
func (c *Client) CheckParent(ctx context.Context, parentID string) error {
	if err := c.do(ctx, http.MethodGet, "/pages/"+parentID, nil, nil); err != nil {
		return fmt.Errorf("open parent page %s: %w", parentID, err)
	}
	return nil
}

// SearchDatabase finds a database shared with the integration whose title is exactly title.
func (c *Client) SearchDatabase(ctx context.Context, title string) (*workspace.Collection, error) {
	req := map[string]any{
		"query":  title,
		"filter": map[string]any{"property": "object", "value": "database"},
	}
	var resp struct {
		Results []database `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("search database %q: %w", title, err)
	}
	for _, db := range resp.Results {
		if db.Object == "database" && db.plainTitle() == title {
			col := db.collection()
			return &col, nil
		}
	}
	return nil, nil
}

// CreateDatabase creates a database under parentID with a "Name" title field and schema.
func (c *Client) CreateDatabase(ctx context.Context, parentID, title string, schema workspace.Schema) (workspace.Collection, error) {
	props := schemaProperties(schema)
	props["Name"] = map[string]any{"title": map[string]any{}}
	req := map[string]any{
		"parent":     map[string]any{"type": "page_id", "page_id": parentID},
		"title":      []any{textObject(title)},
		"properties": props,
	}
	var db database
	if err := c.do(ctx, http.MethodPost, "/databases", req, &db); err != nil {
		return workspace.Collection{}, fmt.Errorf("create database %q: %w", title, err)
	}
	col := db.collection()
	if col.Title == "" {
		col.Title = title
	}
	return col, nil
}

// OpenCollection finds or creates the database titled title and ensures its schema.
func (c *Client) OpenCollection(ctx context.Context, parentID, title string, schema workspace.Schema) (workspace.Collection, error) {
	found, err := c.SearchDatabase(ctx, title)
	if err != nil {
		return workspace.Collection{}, err
	}
	var col workspace.Collection
	if found != nil {
		col = *found
	} else {
		c.logger.Info("creating database", "title", title, "parent", parentID)
		if col, err = c.CreateDatabase(ctx, parentID, title, schema); err != nil {
			return workspace.Collection{}, err
		}
	}
	if err := c.EnsureSchema(ctx, col.ID, schema); err != nil {
		return workspace.Collection{}, err
	}
	return col, nil
}

func (c *Client) getDatabase(ctx context.Context, databaseID string) (database, error) {
	var db database
	if err := c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return db, fmt.Errorf("get database %s: %w", databaseID, err)
	}
	return db, nil
}

// EnsureSchema adds the schema fields the database does not have yet.
// Existing fields are never modified.
func (c *Client) EnsureSchema(ctx context.Context, databaseID string, schema workspace.Schema) error {
	db, err := c.getDatabase(ctx, databaseID)
	if err != nil {
		return err
	}
	var missing workspace.Schema
	for _, f := range schema {
		if _, ok := db.Properties[f.Name]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	c.logger.Info("adding database fields", "database", databaseID, "count", len(missing))
	req := map[string]any{"properties": schemaProperties(missing)}
	if err := c.do(ctx, http.MethodPatch, "/databases/"+databaseID, req, nil); err != nil {
		return fmt.Errorf("update schema of %s: %w", databaseID, err)
	}
	return nil
}

// TitleFieldName returns the name of the database's title property ("Name" if none is reported).
func (c *Client) TitleFieldName(ctx context.Context, databaseID string) (string, error) {
	db, err := c.getDatabase(ctx, databaseID)
	if err != nil {
		return "", err
	}
	for name, meta := range db.Properties {
		if meta.Type == "title" {
			return name, nil
		}
	}
	return "Name", nil
}

// FindByExternalID returns the first page whose text property field equals externalID.
func (c *Client) FindByExternalID(ctx context.Context, databaseID, field, externalID string) (string, bool, error) {
	req := map[string]any{
		"page_size": 1,
		"filter": map[string]any{
			"property":  field,
			"rich_text": map[string]any{"equals": externalID},
		},
	}
	var resp struct {
		Results []page `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", req, &resp); err != nil {
		return "", false, fmt.Errorf("query %s=%s: %w", field, externalID, err)
	}
	if len(resp.Results) == 0 {
		return "", false, nil
	}
	return resp.Results[0].ID, true, nil
}

// CreateRecord creates a page in the database.
func (c *Client) CreateRecord(ctx context.Context, databaseID string, fields workspace.Fields) (string, error) {
	req := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": encodeFields(fields),
	}
	var p page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &p); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return p.ID, nil
}

// UpdateRecord patches the given properties of a page; other properties are left alone.
func (c *Client) UpdateRecord(ctx context.Context, pageID string, fields workspace.Fields) error {
	req := map[string]any{"properties": encodeFields(fields)}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}
