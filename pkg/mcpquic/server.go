package mcpquic

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
)

// Config describes a QUIC listener. A nil TLS config gets a self-signed
// certificate. HTTP, when set, is also served as HTTP/3 on the same UDP
// socket; connections are routed by ALPN.
type Config struct {
	Addr   string
	TLS    *tls.Config
	MCP    *server.MCPServer
	HTTP   http.Handler
	Logger *zap.Logger
}

// Listener serves one MCPServer to every QUIC connection negotiating ALPN.
// Each connection carries a single bidirectional stream of newline-delimited
// JSON-RPC messages, opened with Preamble.
type Listener struct {
	ln     *quic.Listener
	mcp    *server.MCPServer
	h3     *http3.Server
	logger *zap.Logger
}

func Listen(cfg Config) (*Listener, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	if cfg.TLS == nil {
		var err error
		if cfg.TLS, err = selfSigned(); err != nil {
			return nil, err
		}
	}
	tlsCfg := cfg.TLS.Clone()
	tlsCfg.NextProtos = []string{ALPN}
	l := &Listener{mcp: cfg.MCP, logger: cfg.Logger}
	if cfg.HTTP != nil {
		tlsCfg.NextProtos = append(tlsCfg.NextProtos, http3.NextProtoH3)
		l.h3 = &http3.Server{Handler: cfg.HTTP}
	}
	ln, err := quic.ListenAddr(cfg.Addr, tlsCfg, QUICConfig())
	if err != nil {
		return nil, eris.Wrapf(err, "quic listen %s", cfg.Addr)
	}
	l.ln = ln
	cfg.Logger.Info("quic listener ready",
		zap.String("addr", ln.Addr().String()),
		zap.Strings("alpn", tlsCfg.NextProtos))
	return l, nil
}

// Addr is the bound UDP address.
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Serve accepts connections until ctx is done or the listener is closed.
func (l *Listener) Serve(ctx context.Context) error {
	for {
		conn, err := l.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return eris.Wrap(err, "quic accept")
		}
		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; {
		case alpn == ALPN:
			go l.serveConn(ctx, conn)
		case alpn == http3.NextProtoH3 && l.h3 != nil:
			go func() {
				if err := l.h3.ServeQUICConn(conn); err != nil {
					l.logger.Debug("http3 connection done", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
				}
			}()
		default:
			_ = conn.CloseWithError(codeBadALPN, "unsupported alpn "+alpn)
		}
	}
}

func (l *Listener) Close() error {
	if l.h3 != nil {
		_ = l.h3.Close()
	}
	return l.ln.Close()
}

func (l *Listener) serveConn(ctx context.Context, conn *quic.Conn) {
	log := l.logger.With(zap.String("remote", conn.RemoteAddr().String()))

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		log.Warn("mcp quic stream not opened", zap.Error(err))
		_ = conn.CloseWithError(codeProtocolError, "no stream")
		return
	}
	if err := readPreamble(stream); err != nil {
		log.Warn("mcp quic stream rejected", zap.Error(err))
		stream.CancelRead(streamBadPreamble)
		stream.CancelWrite(streamBadPreamble)
		_ = conn.CloseWithError(codeProtocolError, "bad preamble")
		return
	}

	sess := &session{id: "quic_" + uuid.NewString(), out: stream, notifications: make(chan mcp.JSONRPCNotification, 64)}
	log = log.With(zap.String("session", sess.id))
	if err := l.mcp.RegisterSession(ctx, sess); err != nil {
		log.Error("mcp session not registered", zap.Error(err))
		_ = stream.Close()
		return
	}
	defer l.mcp.UnregisterSession(ctx, sess.id)
	defer conn.CloseWithError(codeNoError, "")

	ctx, cancel := context.WithCancel(kit.WithTransport(ctx, "mcp_quic"))
	defer cancel()
	ctx = l.mcp.WithContext(ctx, sess)
	go sess.forward(ctx)

	log.Info("mcp quic session started")
	r := bufio.NewReader(stream)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 1 {
			if resp := l.mcp.HandleMessage(ctx, json.RawMessage(line)); resp != nil {
				if werr := sess.write(resp); werr != nil {
					log.Warn("mcp quic write failed", zap.Error(werr))
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Warn("mcp quic read failed", zap.Error(err))
			}
			break
		}
	}
	log.Info("mcp quic session ended")
}

// session is the server.ClientSession of one QUIC stream. Responses and
// notifications share the stream, so writes are serialized.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	mu  sync.Mutex
	out io.Writer
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return eris.Wrap(err, "marshal mcp message")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(data, '\n'))
	return err
}

func (s *session) forward(ctx context.Context) {
	for {
		select {
		case n := <-s.notifications:
			_ = s.write(n)
		case <-ctx.Done():
			return
		}
	}
}
