package custom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anisan-cli/anistream/internal/cache"
	"github.com/anisan-cli/anistream/network"
	lua "github.com/yuin/gopher-lua"
)

const httpTimeout = 30 * time.Second

type tlsResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// registerTLSClient injects the http_tls module: an HTTP client presenting a browser
// TLS fingerprint, for hosts that reject the default Go ClientHello.
//
// Lua API:
//
//	http_tls.get(url)              → body string
//	http_tls.get(url, headers_tbl) → body string, sent with the extra headers
//	http_tls.request(options_tbl)  → {status, body, headers}
//
// request options are method, url, headers, body and cache. With cache = true a
// 200 response is kept in the cache directory and replayed for the same request.
func registerTLSClient(L *lua.LState, doer network.Doer) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		return httpTLSGet(L, doer)
	}))
	L.SetField(mod, "request", L.NewFunction(func(L *lua.LState) int {
		return httpTLSRequest(L, doer)
	}))
	L.SetGlobal("http_tls", mod)
}

func tableHeaders(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl != nil {
		tbl.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpTLSGet(L *lua.LState, doer network.Doer) int {
	url := L.CheckString(1)
	headers := tableHeaders(L.OptTable(2, nil))

	resp, err := doTLSRequest(luaContext(L), doer, "GET", url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}
	if resp.Status < 200 || resp.Status > 299 {
		L.RaiseError("http_tls.get failed: status %d", resp.Status)
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

func httpTLSRequest(L *lua.LState, doer network.Doer) int {
	opts := L.CheckTable(1)

	method := strings.ToUpper(getStringField(opts, "method", "GET"))
	url := getStringField(opts, "url", "")
	body := getStringField(opts, "body", "")
	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	headers := map[string]string{}
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		headers = tableHeaders(tbl)
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))
	cacheKey := cache.GenerateKey(url+body, method)

	var resp tlsResponse
	if !shouldCache || !cache.Read(cacheKey, &resp) {
		fetched, err := doTLSRequest(luaContext(L), doer, method, url, headers, body)
		if err != nil {
			L.RaiseError("http_tls.request failed: %s", err.Error())
			return 0
		}
		resp = fetched
		if shouldCache && resp.Status == 200 {
			_ = cache.Write(cacheKey, resp)
		}
	}

	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(resp.Status))
	L.SetField(result, "body", lua.LString(resp.Body))
	respHeaders := L.NewTable()
	for k, v := range resp.Headers {
		L.SetField(respHeaders, k, lua.LString(v))
	}
	L.SetField(result, "headers", respHeaders)
	L.Push(result)
	return 1
}

// getStringField is a helper to get a string field from a Lua table with a default.
func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func doTLSRequest(ctx context.Context, doer network.Doer, method, rawURL string, headers map[string]string, body string) (tlsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, httpTimeout)
	defer cancel()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := network.NewRequest(ctx, method, rawURL, headers, reqBody)
	if err != nil {
		return tlsResponse{}, err
	}

	resp, err := doer.Do(req)
	if err != nil {
		return tlsResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return tlsResponse{}, fmt.Errorf("read body: %w", err)
	}

	out := tlsResponse{
		Status:  resp.StatusCode,
		Body:    string(respBody),
		Headers: make(map[string]string, len(resp.Header)),
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	return out, nil
}
