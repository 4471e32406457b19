// CLAUDE:SUMMARY MCP over QUIC (plus optional HTTP/3 on the same socket): ALPN, stream preamble, TLS helpers, error codes.
package mcpquic

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/rotisserie/eris"
)

const (
	ALPN = "touchstone-cleaner-mcp-v1"
	// Preamble opens every MCP stream, ahead of the first JSON-RPC line.
	Preamble = "MCP1"

	IdleTimeout = 5 * time.Minute
	KeepAlive   = 30 * time.Second
)

// Application error codes sent when a stream or connection is refused.
const (
	codeNoError       quic.ApplicationErrorCode = 0x00
	codeBadALPN       quic.ApplicationErrorCode = 0x01
	codeProtocolError quic.ApplicationErrorCode = 0x03

	streamBadPreamble quic.StreamErrorCode = 0x02
)

var (
	ErrBadPreamble  = eris.New("mcp stream preamble missing")
	ErrBadALPN      = eris.New("peer did not negotiate the mcp protocol")
	ErrNotConnected = eris.New("mcp client not connected")
)

// QUICConfig returns the transport settings used on both ends.
func QUICConfig() *quic.Config {
	return &quic.Config{
		MaxStreamReceiveWindow:     10 << 20,
		MaxConnectionReceiveWindow: 50 << 20,
		MaxIdleTimeout:             IdleTimeout,
		KeepAlivePeriod:            KeepAlive,
	}
}

// ServerTLS loads a certificate pair, or generates a self-signed localhost
// certificate when both paths are empty. Listen sets the ALPN list.
func ServerTLS(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" {
		return selfSigned()
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, eris.Wrap(err, "load quic certificate")
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func selfSigned() (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, eris.Wrap(err, "generate key")
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, eris.Wrap(err, "serial number")
	}
	tmpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{Organization: []string{"touchstone-cleaner dev"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, eris.Wrap(err, "self-sign certificate")
	}
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientTLS returns the client side config. insecure skips verification,
// which a self-signed server needs.
func ClientTLS(insecure bool) *tls.Config {
	return &tls.Config{
		NextProtos:         []string{ALPN},
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecure,
	}
}

func readPreamble(r io.Reader) error {
	got := make([]byte, len(Preamble))
	if _, err := io.ReadFull(r, got); err != nil {
		return eris.Wrap(ErrBadPreamble, err.Error())
	}
	if !bytes.Equal(got, []byte(Preamble)) {
		return eris.Wrapf(ErrBadPreamble, "got %q", got)
	}
	return nil
}
