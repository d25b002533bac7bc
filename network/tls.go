package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// Fingerprinted performs https requests with a Chrome TLS ClientHello.
// It tries HTTP/2 first and retries once over HTTP/1.1 if that fails.
// Plain http requests go through Client unchanged.
type Fingerprinted struct {
	h2once sync.Once
	h2     *http2.Transport
	h1     *http.Transport
}

// NewFingerprinted returns a ready Fingerprinted doer.
func NewFingerprinted() *Fingerprinted {
	return &Fingerprinted{
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialTLS(ctx, network, addr, []string{"http/1.1"})
			},
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

func (f *Fingerprinted) transport2() *http2.Transport {
	f.h2once.Do(func() {
		f.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return f.h2
}

// Do sends req. Requests with a body are only retried over HTTP/1.1 if GetBody is set.
func (f *Fingerprinted) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return Client.Do(req)
	}

	resp, err := f.transport2().RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Context().Err() != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry.Body = body
	}

	resp, err = f.h1.RoundTrip(retry)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// dialTLS opens a TLS connection mimicking Chrome's fingerprint.
// nextProtos overrides ALPN; nil keeps Chrome's h2 + http/1.1 advertisement.
func dialTLS(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
