package rffm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodyBytes     = 16 << 20
	maxRedirects     = 10
)

var errBodyTooLarge = crerr.Newf("response body exceeds %d bytes", maxBodyBytes)

// Response is the part of an HTTP response the fetcher looks at.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single GET. Retrying is the fetcher's job.
type Transport interface {
	Get(ctx context.Context, url string) (Response, error)
}

type TransportKind string

const (
	TransportNetHTTP  TransportKind = "nethttp"
	TransportFastHTTP TransportKind = "fasthttp"
)

// NewTransport builds the transport named by kind; unknown kinds fall back to net/http.
func NewTransport(kind TransportKind, timeout time.Duration, userAgent string) Transport {
	if kind == TransportFastHTTP {
		return NewFastHTTPTransport(timeout, userAgent)
	}
	return NewNetHTTPTransport(nil, timeout, userAgent)
}

// NetHTTPTransport uses net/http with otelhttp client spans.
type NetHTTPTransport struct {
	client    *http.Client
	userAgent string
}

func NewNetHTTPTransport(client *http.Client, timeout time.Duration, userAgent string) *NetHTTPTransport {
	if client == nil {
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if client.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}
	return &NetHTTPTransport{
		client:    client,
		userAgent: firstNonEmpty(userAgent, defaultUserAgent),
	}
}

func (t *NetHTTPTransport) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, crerr.Wrap(err, "build request")
	}
	req.Header.Set("user-agent", t.userAgent)
	req.Header.Set("accept", "text/html,application/xhtml+xml")

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, crerr.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Response{}, crerr.Wrap(err, "read response body")
	}
	if len(body) > maxBodyBytes {
		return Response{}, errBodyTooLarge
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// FastHTTPTransport uses fasthttp's pooled client. It has no otel instrumentation.
type FastHTTPTransport struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

func NewFastHTTPTransport(timeout time.Duration, userAgent string) *FastHTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FastHTTPTransport{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		},
		timeout:   timeout,
		userAgent: firstNonEmpty(userAgent, defaultUserAgent),
	}
}

func (t *FastHTTPTransport) Get(ctx context.Context, url string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(t.userAgent)
	req.Header.Set("accept", "text/html,application/xhtml+xml")

	timeout := t.timeout
	if ctxDeadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(ctxDeadline))
	}
	if timeout <= 0 {
		return Response{}, context.DeadlineExceeded
	}
	// DoDeadline does not follow redirects. The timeout applies to each hop.
	req.SetTimeout(timeout)
	if err := t.client.DoRedirects(req, resp, maxRedirects); err != nil {
		if crerr.Is(err, fasthttp.ErrBodyTooLarge) {
			return Response{}, errBodyTooLarge
		}
		return Response{}, crerr.Wrap(err, "send request")
	}

	// resp is recycled on return, so the body has to be copied out.
	body := append([]byte(nil), resp.Body()...)
	return Response{StatusCode: resp.StatusCode(), Body: body}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
