package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func statusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status == http.StatusMovedPermanently {
			w.Header().Set("Location", "https://example.com/new")
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckAll_Mixed(t *testing.T) {
	sdb := tempSourceDB(t)
	require.NoError(t, sdb.Seed([]Adapter{
		&fakeAdapter{"ok-source", "OK source", statusServer(t, 200).URL, "CC0"},
		&fakeAdapter{"notfound-source", "404 source", statusServer(t, 404).URL, "CC0"},
		&fakeAdapter{"error-source", "500 source", statusServer(t, 500).URL, "CC0"},
		// 3xx counts as reachable.
		&fakeAdapter{"redirect-source", "redirect", statusServer(t, 301).URL, "CC0"},
	}))

	core, logs := observer.New(zapcore.InfoLevel)
	results := NewChecker(sdb, zap.New(core), time.Hour).CheckAll(context.Background())
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, r.AdapterID == "ok-source" || r.AdapterID == "redirect-source", r.Reachable(), r.AdapterID)
	}

	sources, err := sdb.ListSources()
	require.NoError(t, err)
	statusByID := make(map[string]int)
	for _, src := range sources {
		require.NotNil(t, src.LastStatus, src.AdapterID)
		statusByID[src.AdapterID] = *src.LastStatus
	}
	assert.Equal(t, map[string]int{
		"ok-source":       200,
		"notfound-source": 404,
		"error-source":    500,
		"redirect-source": 301,
	}, statusByID)

	assert.Equal(t, 2, logs.FilterMessage("source unreachable").Len())
	summary := logs.FilterMessage("source check complete").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["failed"])
}

func TestCheckAll_NetworkError(t *testing.T) {
	sdb := tempSourceDB(t)
	require.NoError(t, sdb.Seed([]Adapter{&fakeAdapter{"dead-source", "dead", "http://127.0.0.1:1", "CC0"}}))

	results := NewChecker(sdb, zap.NewNop(), time.Hour).CheckAll(context.Background())
	require.Len(t, results, 1)
	assert.False(t, results[0].Reachable())

	sources, _ := sdb.ListSources()
	src := sources[0]
	require.NotNil(t, src.LastStatus)
	assert.Equal(t, 0, *src.LastStatus)
	require.NotNil(t, src.LastError)
	assert.NotEmpty(t, *src.LastError)
}

func TestCheckAll_EmptyDB(t *testing.T) {
	sdb := tempSourceDB(t)
	assert.Empty(t, NewChecker(sdb, nil, time.Hour).CheckAll(context.Background()))
}
