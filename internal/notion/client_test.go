package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardsync/internal/workspace"
)

type request struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []request
	handle   func(w http.ResponseWriter, r request)
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := request{Method: r.Method, Path: r.URL.Path}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.handle(w, req)
}

func newTestClient(t *testing.T, handle func(w http.ResponseWriter, r request)) (*Client, *fakeNotion) {
	t.Helper()
	fake := &fakeNotion{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := NewClient("secret_token", srv.URL, log.New(io.Discard))
	c.RetryDelay = time.Millisecond
	return c, fake
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient("secret_token", srv.URL, log.New(io.Discard))
	require.NoError(t, c.Verify(context.Background()))
	assert.Equal(t, "Bearer secret_token", got.Get("Authorization"))
	assert.Equal(t, APIVersion, got.Get("Notion-Version"))
}

func TestVerify_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`)
	})
	err := c.Verify(context.Background())
	assert.ErrorIs(t, err, workspace.ErrUnauthorized)
	assert.Contains(t, err.Error(), "API token is invalid.")
}

func TestCheckParent_Errors(t *testing.T) {
	status := http.StatusForbidden
	c, _ := newTestClient(t, func(w http.ResponseWriter, r request) {
		w.WriteHeader(status)
		fmt.Fprint(w, `{}`)
	})
	assert.ErrorIs(t, c.CheckParent(context.Background(), "abc"), workspace.ErrForbidden)

	status = http.StatusNotFound
	assert.ErrorIs(t, c.CheckParent(context.Background(), "abc"), workspace.ErrNotFound)
}

func TestWrite_RetriesOnceOn429(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"page-1"}`)
	})
	id, err := c.CreateRecord(context.Background(), "db", workspace.Fields{"Name": workspace.Title("Bolt")})
	require.NoError(t, err)
	assert.Equal(t, "page-1", id)
	assert.Equal(t, 2, calls)
}

func TestWrite_SecondRateLimitFails(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})
	err := c.UpdateRecord(context.Background(), "page", workspace.Fields{"Name": workspace.Title("Bolt")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, 2, calls)
}

func TestOpenCollection_CreatesWhenMissing(t *testing.T) {
	schema := workspace.Schema{
		{Name: "Card ID", Kind: workspace.KindText},
		{Name: "Set", Kind: workspace.KindSelect},
	}
	c, fake := newTestClient(t, func(w http.ResponseWriter, r request) {
		switch {
		case r.Method == http.MethodPost && r.Path == "/search":
			fmt.Fprint(w, `{"results":[{"object":"database","id":"other","title":[{"plain_text":"MTG Cards (old)"}]}]}`)
		case r.Method == http.MethodPost && r.Path == "/databases":
			fmt.Fprint(w, `{"object":"database","id":"db-1","url":"https://notion.so/db-1","title":[{"plain_text":"MTG Cards"}]}`)
		case r.Method == http.MethodGet && r.Path == "/databases/db-1":
			fmt.Fprint(w, `{"object":"database","id":"db-1","properties":{"Name":{"type":"title"},"Card ID":{"type":"rich_text"},"Set":{"type":"select"}}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.Path)
		}
	})

	col, err := c.OpenCollection(context.Background(), "parent-1", "MTG Cards", schema)
	require.NoError(t, err)
	assert.Equal(t, workspace.Collection{ID: "db-1", Title: "MTG Cards", URL: "https://notion.so/db-1"}, col)

	create := fake.requests[1]
	assert.Equal(t, map[string]any{"type": "page_id", "page_id": "parent-1"}, create.Body["parent"])
	props := create.Body["properties"].(map[string]any)
	assert.Contains(t, props, "Name")
	assert.Equal(t, map[string]any{"rich_text": map[string]any{}}, props["Card ID"])
	assert.Len(t, fake.requests, 3, "no schema patch when nothing is missing")
}

func TestEnsureSchema_AddsOnlyMissing(t *testing.T) {
	schema := workspace.Schema{
		{Name: "Card ID", Kind: workspace.KindText},
		{Name: "CN Sort", Kind: workspace.KindNumber},
		{Name: "Mainboard", Kind: workspace.KindRelation, Target: "cards-db"},
	}
	c, fake := newTestClient(t, func(w http.ResponseWriter, r request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"id":"db-1","properties":{"Name":{"type":"title"},"Card ID":{"type":"rich_text"}}}`)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	require.NoError(t, c.EnsureSchema(context.Background(), "db-1", schema))
	require.Len(t, fake.requests, 2)

	patch := fake.requests[1]
	assert.Equal(t, http.MethodPatch, patch.Method)
	assert.Equal(t, "/databases/db-1", patch.Path)
	props := patch.Body["properties"].(map[string]any)
	assert.Len(t, props, 2)
	assert.Equal(t, map[string]any{"number": map[string]any{}}, props["CN Sort"])
	assert.Equal(t, map[string]any{"relation": map[string]any{
		"database_id":     "cards-db",
		"single_property": map[string]any{},
	}}, props["Mainboard"])
}

func TestTitleFieldName(t *testing.T) {
	body := `{"properties":{"Card":{"type":"title"},"Set":{"type":"select"}}}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r request) { fmt.Fprint(w, body) })

	name, err := c.TitleFieldName(context.Background(), "db")
	require.NoError(t, err)
	assert.Equal(t, "Card", name)

	body = `{"properties":{}}`
	name, err = c.TitleFieldName(context.Background(), "db")
	require.NoError(t, err)
	assert.Equal(t, "Name", name)
}

func TestFindByExternalID(t *testing.T) {
	results := `[{"id":"page-9"}]`
	c, fake := newTestClient(t, func(w http.ResponseWriter, r request) {
		fmt.Fprintf(w, `{"results":%s}`, results)
	})

	id, ok, err := c.FindByExternalID(context.Background(), "db", "Card ID", "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page-9", id)
	assert.Equal(t, "/databases/db/query", fake.requests[0].Path)
	assert.Equal(t, map[string]any{
		"property":  "Card ID",
		"rich_text": map[string]any{"equals": "abc"},
	}, fake.requests[0].Body["filter"])

	results = `[]`
	_, ok, err = c.FindByExternalID(context.Background(), "db", "Card ID", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncodeValue(t *testing.T) {
	n := 12.5
	tests := []struct {
		name string
		in   workspace.Value
		want string
	}{
		{"title", workspace.Title("Bolt"), `{"title":[{"text":{"content":"Bolt"},"type":"text"}]}`},
		{"empty text", workspace.Text(""), `{"rich_text":[]}`},
		{"select", workspace.Select("FIN"), `{"select":{"name":"FIN"}}`},
		{"empty select", workspace.Select(""), `{"select":null}`},
		{"multi", workspace.MultiSelect([]string{"Booster", "Collector"}), `{"multi_select":[{"name":"Booster"},{"name":"Collector"}]}`},
		{"number", workspace.Number(&n), `{"number":12.5}`},
		{"nil number", workspace.Number(nil), `{"number":null}`},
		{"empty url", workspace.URL(""), `{"url":null}`},
		{"date", workspace.Date("2025-06-13"), `{"date":{"start":"2025-06-13"}}`},
		{"empty date", workspace.Date(""), `{"date":null}`},
		{"files", workspace.Files([]string{"https://img/x.png"}), `{"files":[{"external":{"url":"https://img/x.png"},"name":"image","type":"external"}]}`},
		{"relation", workspace.Relation([]string{"p1", "p2"}), `{"relation":[{"id":"p1"},{"id":"p2"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(encodeValue(tt.in))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestRichText_SplitsLongText(t *testing.T) {
	long := strings.Repeat("é", maxTextLen*2+5)
	segs := richText(long)
	require.Len(t, segs, 3)

	var joined strings.Builder
	for _, s := range segs {
		content := s.(map[string]any)["text"].(map[string]any)["content"].(string)
		assert.LessOrEqual(t, len([]rune(content)), maxTextLen)
		joined.WriteString(content)
	}
	assert.Equal(t, long, joined.String())
}
