package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
	"github.com/hazyhaar/touchstone-cleaner/pkg/rules"
)

func testService(t *testing.T) *Service {
	t.Helper()
	store, err := legalform.Open(fstest.MapFS{
		legalform.ManifestFile: {Data: []byte(`{"legal_forms": {"us": ["en"], "fr": ["fr"], "ch": ["de", "fr"]}}`)},
		"us_legal_forms.json": {Data: []byte(`{"legal_forms": {"en": {
			"limited": ["ltd"],
			"corporation": ["corp", "co"],
			"incorporated": ["inc", "inc."]
		}}}`)},
		"fr_legal_forms.json": {Data: []byte(`{"legal_forms": {"fr": {
			"société anonyme": ["sa", "s.a."],
			"société à responsabilité limitée": ["sarl"]
		}}}`)},
		"ch_legal_forms.json": {Data: []byte(`{"legal_forms": {
			"de": {"aktiengesellschaft": ["ag"]},
			"fr": {"société anonyme": ["sa"]}
		}}}`)},
	})
	require.NoError(t, err)
	n, err := names.New(store, names.DefaultConfig())
	require.NoError(t, err)
	return &Service{Normalizer: n, MaxBatch: 3}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewRouter(testService(t), Options{Logger: zap.NewNop()}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func cleaned(t *testing.T, body map[string]any) []any {
	t.Helper()
	results, ok := body["results"].([]any)
	require.True(t, ok, "results missing: %v", body)
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = r.(map[string]any)["clean"]
	}
	return out
}

func TestCleanNames(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "POST", "/v1/names/clean", `{"names":["Acme (Europe) Inc.","Widget Company, The"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"acme incorporated", "the widget company"}, cleaned(t, body))
	assert.Equal(t, "us", body["legal_forms"].(map[string]any)["country"])

	resp, body = do(t, ts, "POST", "/v1/names/clean", `{"name":"Dupont SARL","country":"FR"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"dupont société à responsabilité limitée"}, cleaned(t, body))

	// A per-request country does not change the active dictionary.
	_, body = do(t, ts, "POST", "/v1/names/clean", `{"name":"Dupont SARL"}`)
	assert.Equal(t, []any{"dupont sarl"}, cleaned(t, body))

	_, body = do(t, ts, "POST", "/v1/names/clean", `{"name":"Acme SARL","country":"fr","merge":true,"names":["Foo Corp"]}`)
	assert.Equal(t, []any{"acme société à responsabilité limitée", "foo corporation"}, cleaned(t, body))
}

func TestCleanNamesErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name, body string
		code       int
	}{
		{"empty", `{"names":[]}`, http.StatusBadRequest},
		{"bad json", `{"names":`, http.StatusBadRequest},
		{"too many", `{"names":["a","b","c","d"]}`, http.StatusBadRequest},
		{"unknown country", `{"name":"Acme","country":"zz"}`, http.StatusNotFound},
		{"unknown language", `{"name":"Acme","country":"ch","language":"it"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, "POST", "/v1/names/clean", tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestLegalForms(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/v1/legal-forms", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	countries := body["countries"].(map[string]any)
	assert.Len(t, countries, 3)
	assert.Equal(t, []any{"de", "fr"}, countries["ch"])

	resp, body = do(t, ts, "GET", "/v1/legal-forms/ch?language=de", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ch", body["country"])
	assert.Equal(t, "de", body["language"])
	assert.Equal(t, false, body["merged"])
	terms := body["terms"].([]any)
	require.Len(t, terms, 1)
	assert.Equal(t, "aktiengesellschaft", terms[0].(map[string]any)["canonical"])

	_, body = do(t, ts, "GET", "/v1/legal-forms/ch?merge=true", "")
	assert.Equal(t, true, body["merged"])
	assert.Len(t, body["terms"], 5)

	resp, _ = do(t, ts, "GET", "/v1/legal-forms/ch?language=xx", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, "GET", "/v1/legal-forms/zz", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRules(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, "GET", "/v1/rules", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["default"], len(rules.DefaultRules()))
	assert.Len(t, body["rules"], len(rules.Builtin().Names()))
}

func TestCountriesAndIDs(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/v1/countries/pt", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "prt", body["alpha3"])

	resp, _ = do(t, ts, "GET", "/v1/countries/qqq", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, "GET", "/v1/countries/x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, "GET", "/v1/ids/isin/US0378331005", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "isin", body["type"])

	_, body = do(t, ts, "GET", "/v1/ids/lei/5493001KJTIIGC8Y1R17", "")
	assert.Equal(t, false, body["valid"])

	resp, _ = do(t, ts, "GET", "/v1/ids/cusip/037833100", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndRouting(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/v1/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["countries"])
	assert.Equal(t, "us/en", body["active_legal_forms"])
	assert.NotEmpty(t, resp.Header.Get(kit.RequestIDHeader))

	resp, body = do(t, ts, "DELETE", "/v1/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "method not allowed", body["error"])

	resp, _ = do(t, ts, "GET", "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/v1/names/clean", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	ts := httptest.NewServer(NewRouter(testService(t), Options{Logger: zap.NewNop(), RateLimit: 0.001, Burst: 1}))
	defer ts.Close()

	resp, _ := do(t, ts, "GET", "/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, ts, "GET", "/v1/health", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestMCPTools(t *testing.T) {
	ctx := context.Background()
	srv := NewMCPServer(testService(t), "test", zap.NewNop())
	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))
	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0"}
	_, err = c.Initialize(ctx, init)
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	var toolNames []string
	for _, tool := range tools.Tools {
		toolNames = append(toolNames, tool.Name)
	}
	assert.ElementsMatch(t, []string{"clean_name", "resolve_country", "validate_id", "list_legal_forms"}, toolNames)

	text, isErr := callTool(t, c, "clean_name", map[string]any{"names": "Dupont SA, Acme Corp", "country": "fr", "merge": true})
	require.False(t, isErr, text)
	var resp cleanResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "dupont société anonyme", *resp.Results[0].Clean)
	assert.Equal(t, "acme corporation", *resp.Results[1].Clean)

	text, isErr = callTool(t, c, "resolve_country", map[string]any{"value": "Germany"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"alpha2":"de"`)

	_, isErr = callTool(t, c, "validate_id", map[string]any{"type": "cusip", "id": "1"})
	assert.True(t, isErr)

	text, isErr = callTool(t, c, "list_legal_forms", nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"ch":["de","fr"]`)

	text, isErr = callTool(t, c, "list_legal_forms", map[string]any{"country": "ch", "language": "fr"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "société anonyme")
}
