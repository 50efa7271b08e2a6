package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// HTTPStrategy is a single GET with browser-like headers.
type HTTPStrategy struct {
	settings
	client *http.Client
}

func NewHTTP(opts ...Option) *HTTPStrategy {
	s := &HTTPStrategy{settings: newSettings(httpTimeout, 0, opts)}
	s.client = &http.Client{
		Timeout:   s.timeout,
		Transport: newTransport(s.blockPrivate),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return s
}

func (s *HTTPStrategy) Method() Method { return MethodHTTP }

func (s *HTTPStrategy) Fetch(ctx context.Context, rawURL string) (page Page, err error) {
	start := time.Now()
	defer func() { observe(MethodHTTP, start, err) }()

	if _, err = checkScheme(rawURL); err != nil {
		return Page{}, fmt.Errorf("http fetch %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("http fetch %s: %w", rawURL, err)
	}
	setBrowserHeaders(req.Header, randomUserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("http fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Page{}, fmt.Errorf("http fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	markup := decodeMarkup(raw, resp.Header.Get("Content-Type"))

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if s.escalateShells && isClientShell([]byte(markup), finalURL) {
		s.logger.WithField("url", rawURL).Debug("Client-rendered shell detected, escalating")
		return Page{}, fmt.Errorf("http fetch %s: %w", rawURL, ErrClientShell)
	}

	return Page{Markup: markup, FinalURL: finalURL}, nil
}

// decodeMarkup converts body bytes to UTF-8 using the Content-Type charset,
// a BOM or a <meta charset> declaration. Undecodable input is returned as is.
func decodeMarkup(raw []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(raw)
	}
	return strings.ToValidUTF8(string(decoded), "�")
}
