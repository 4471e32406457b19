package mcpquic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go/http3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
)

func TestReadPreamble(t *testing.T) {
	require.NoError(t, readPreamble(bytes.NewBufferString(Preamble+"{}")))
	assert.ErrorIs(t, readPreamble(bytes.NewBufferString("MCP")), ErrBadPreamble)
	assert.ErrorIs(t, readPreamble(bytes.NewBufferString("HTTP")), ErrBadPreamble)
}

func TestServerTLSSelfSigned(t *testing.T) {
	cfg, err := ServerTLS("", "")
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)

	_, err = ServerTLS("missing.crt", "missing.key")
	assert.Error(t, err)
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("127.0.0.1:1", nil)
	_, err := c.ListTools(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.CallTool(context.Background(), "echo", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, c.Close())
}

func TestRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	srv := server.NewMCPServer("test", "0.0.0", server.WithToolCapabilities(false))
	kit.RegisterMCPTool(srv, mcp.NewTool("echo", mcp.WithString("text", mcp.Required())),
		func(ctx context.Context, req any) (any, error) {
			return map[string]string{"text": req.(string), "transport": kit.GetTransport(ctx)}, nil
		},
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			s, _ := req.GetArguments()["text"].(string)
			return &kit.MCPDecodeResult{Request: s}, nil
		})

	tlsCfg, err := ServerTLS("", "")
	require.NoError(t, err)
	ln, err := Listen(Config{Addr: "127.0.0.1:0", TLS: tlsCfg, MCP: srv, Logger: zap.NewNop()})
	require.NoError(t, err)
	defer ln.Close()
	go ln.Serve(ctx)

	c := NewClient(ln.Addr(), nil)
	require.NoError(t, c.Connect(ctx, "test-client", "0.0.0"))
	defer c.Close()

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "echo", tools.Tools[0].Name)

	res, err := c.CallTool(ctx, "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &got))
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "mcp_quic", got["transport"])
}

func TestHTTP3SharesSocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	tlsCfg, err := ServerTLS("", "")
	require.NoError(t, err)
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Proto))
	})
	srv := server.NewMCPServer("test", "0.0.0", server.WithToolCapabilities(false))
	ln, err := Listen(Config{Addr: "127.0.0.1:0", TLS: tlsCfg, MCP: srv, HTTP: mux, Logger: zap.NewNop()})
	require.NoError(t, err)
	defer ln.Close()
	go ln.Serve(ctx)

	tr := &http3.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	defer tr.Close()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+ln.Addr()+"/ping", nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: tr}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/3.0", string(body))

	// MCP still answers on the same address.
	c := NewClient(ln.Addr(), nil)
	require.NoError(t, c.Connect(ctx, "test-client", "0.0.0"))
	defer c.Close()
	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	assert.Empty(t, tools.Tools)
}
