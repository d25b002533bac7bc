// Package proxy implements the same-origin gateway: a URL builder used by the engine
// and the HTTP server that fetches upstream media with the required headers.
package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/source"
)

const (
	paramDestination = "d"
	headerPrefix     = "h_"
)

// Gateway rewrites upstream URLs into gateway URLs carrying the destination and headers as query parameters.
type Gateway struct {
	base *url.URL
}

// NewGateway returns a gateway rooted at base. An empty base yields path-only URLs,
// which resolve against whatever document references them.
func NewGateway(base string) (*Gateway, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway base %q: %w", base, err)
	}
	return &Gateway{base: u}, nil
}

// Base returns the gateway root.
func (g *Gateway) Base() string {
	return g.base.String()
}

// ManifestURL routes an adaptive manifest through the manifest endpoint.
func (g *Gateway) ManifestURL(upstream string, headers map[string]string) string {
	return g.build(constant.ProxyManifestPath, upstream, headers)
}

// StreamURL routes any byte stream (progressive media, segments, subtitles) through the stream endpoint.
func (g *Gateway) StreamURL(upstream string, headers map[string]string) string {
	return g.build(constant.ProxyStreamPath, upstream, headers)
}

// SourceURL picks the endpoint matching the source kind.
func (g *Gateway) SourceURL(src source.Source, headers map[string]string) string {
	if src.IsAdaptiveManifest {
		return g.ManifestURL(src.URL, headers)
	}
	return g.StreamURL(src.URL, headers)
}

func (g *Gateway) build(path, upstream string, headers map[string]string) string {
	q := url.Values{}
	q.Set(paramDestination, upstream)
	for k, v := range headers {
		q.Set(headerPrefix+strings.ToLower(k), v)
	}

	u := *g.base
	u.Path = u.Path + path
	u.RawQuery = q.Encode()
	return u.String()
}

// Request is a decoded gateway request.
type Request struct {
	Destination string
	Headers     map[string]string
}

// ParseRequest extracts the destination and forwarded headers from a gateway query.
func ParseRequest(q url.Values) (Request, error) {
	dest := q.Get(paramDestination)
	if dest == "" {
		return Request{}, fmt.Errorf("missing %q parameter", paramDestination)
	}

	u, err := url.Parse(dest)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Request{}, fmt.Errorf("invalid destination %q", dest)
	}

	headers := make(map[string]string)
	for k, vs := range q {
		if name, ok := strings.CutPrefix(k, headerPrefix); ok && name != "" && len(vs) > 0 {
			headers[http.CanonicalHeaderKey(name)] = vs[0]
		}
	}

	return Request{Destination: dest, Headers: headers}, nil
}
