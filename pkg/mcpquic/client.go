package mcpquic

import (
	"context"
	"crypto/tls"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quic-go/quic-go"
	"github.com/rotisserie/eris"
)

// Client is an MCP client over one QUIC stream.
type Client struct {
	addr   string
	tls    *tls.Config
	conn   *quic.Conn
	stream *quic.Stream
	mcp    *client.Client
}

// NewClient dials lazily on Connect. A nil tlsCfg skips certificate
// verification, matching the self-signed listener.
func NewClient(addr string, tlsCfg *tls.Config) *Client {
	if tlsCfg == nil {
		tlsCfg = ClientTLS(true)
	}
	return &Client{addr: addr, tls: tlsCfg}
}

// Connect dials, opens the stream, sends the preamble and runs the MCP
// initialize handshake.
func (c *Client) Connect(ctx context.Context, name, version string) error {
	conn, err := quic.DialAddr(ctx, c.addr, c.tls, QUICConfig())
	if err != nil {
		return eris.Wrapf(err, "quic dial %s", c.addr)
	}
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPN {
		_ = conn.CloseWithError(codeBadALPN, "bad alpn")
		return eris.Wrapf(ErrBadALPN, "got %q", alpn)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeProtocolError, "stream open failed")
		return eris.Wrap(err, "open mcp stream")
	}
	c.conn, c.stream = conn, stream

	if _, err := stream.Write([]byte(Preamble)); err != nil {
		c.closeTransport()
		return eris.Wrap(err, "send preamble")
	}

	mc := client.NewClient(transport.NewIO(stream, streamWriter{stream}, io.NopCloser(eofReader{})))
	if err := mc.Start(ctx); err != nil {
		c.closeTransport()
		return eris.Wrap(err, "start mcp client")
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: name, Version: version}
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := mc.Initialize(initCtx, req); err != nil {
		_ = mc.Close()
		c.closeTransport()
		return eris.Wrap(err, "mcp initialize")
	}
	c.mcp = mc
	return nil
}

func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if c.mcp == nil {
		return nil, ErrNotConnected
	}
	return c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.mcp == nil {
		return nil, ErrNotConnected
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcp.CallTool(ctx, req)
}

func (c *Client) Close() error {
	if c.mcp != nil {
		_ = c.mcp.Close()
		c.mcp = nil
	}
	c.closeTransport()
	return nil
}

func (c *Client) closeTransport() {
	if c.stream != nil {
		_ = c.stream.Close()
	}
	if c.conn != nil {
		_ = c.conn.CloseWithError(codeNoError, "client closing")
	}
}

type streamWriter struct{ s *quic.Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.s.Write(p) }
func (w streamWriter) Close() error                { return w.s.Close() }

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
