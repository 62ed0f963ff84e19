package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DiscoveryResult is the response to relay back to the caller. Headers
// is populated only for non-200 responses, which are forwarded
// unchanged.
type DiscoveryResult struct {
	StatusCode  int
	ContentType string
	Headers     http.Header
	Body        []byte
}

// ForwardDiscovery proxies a /json discovery request to the upstream
// browser. Successful responses get their WebSocket debugger URLs
// rewritten to point back at this gateway; non-200 responses pass
// through untouched. The upstream is always queried with GET regardless
// of the incoming method.
func (s *Service) ForwardDiscovery(ctx context.Context, in *http.Request) (*DiscoveryResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	prefix := in.Header.Get("X-Forwarded-Prefix")
	target := s.origin + in.URL.Path

	s.logger.Info("forwarding discovery request",
		zap.String("target", target),
		zap.String("original_path", prefix+in.URL.Path),
	)

	req := s.httpClient().R().SetContext(ctx)
	for key, values := range in.Header {
		if skipHeader(key) {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := req.Get(target)
	if err != nil {
		return nil, classifyUpstreamError(err)
	}
	s.metrics.RecordDiscovery(strconv.Itoa(resp.StatusCode()), time.Since(start))

	result := &DiscoveryResult{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}
	if resp.StatusCode() != http.StatusOK {
		result.Headers = resp.Header()
		return result, nil
	}

	result.Body = []byte(s.rewriteWebSocketURLs(string(resp.Body()), in, prefix))
	return result, nil
}

// rewriteWebSocketURLs replaces upstream debugger URLs with URLs that
// route through this gateway, preserving any forwarded path prefix.
func (s *Service) rewriteWebSocketURLs(body string, in *http.Request, prefix string) string {
	proxyHost := in.Host
	scheme := "ws"
	if in.TLS != nil || in.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}

	return wsURLPattern.ReplaceAllStringFunc(body, func(match string) string {
		groups := wsURLPattern.FindStringSubmatch(match)
		rewritten := `"` + scheme + "://" + proxyHost + prefix + groups[3] + `"`
		s.logger.Debug("rewrote websocket url",
			zap.String("from", strings.Trim(match, `"`)),
			zap.String("to", strings.Trim(rewritten, `"`)),
		)
		return rewritten
	})
}

// skipHeader reports whether a request header must not be forwarded
// upstream. Host is replaced with the upstream netloc and
// Accept-Encoding is dropped so the body stays rewritable.
func skipHeader(key string) bool {
	switch strings.ToLower(key) {
	case "host", "accept-encoding":
		return true
	}
	return false
}

// classifyUpstreamError maps transport failures onto the proxy error
// taxonomy. Anything that is not a timeout or a transport-level failure
// is returned as-is and surfaces as an internal error.
func classifyUpstreamError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrUpstreamTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrUpstreamUnreachable
	}
	return err
}
