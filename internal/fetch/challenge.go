package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/gocolly/colly/v2"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

// Body fragments served by common anti-bot interstitials.
var challengeMarkers = [][]byte{
	[]byte("just a moment..."),
	[]byte("cf-browser-verification"),
	[]byte("cf_chl_opt"),
	[]byte("checking your browser"),
	[]byte("attention required! | cloudflare"),
	[]byte("captcha-delivery.com"),
}

// ChallengeStrategy fetches through a colly collector with its own cookie jar.
// When the response is an interstitial a retry policy waits and asks again,
// carrying the clearance cookies the interstitial set.
type ChallengeStrategy struct {
	settings
	transport http.RoundTripper
}

func NewChallenge(opts ...Option) *ChallengeStrategy {
	s := &ChallengeStrategy{settings: newSettings(challengeTimeout, 0, opts)}
	s.transport = newTransport(s.blockPrivate)
	return s
}

func (s *ChallengeStrategy) Method() Method { return MethodChallenge }

func (s *ChallengeStrategy) Fetch(ctx context.Context, rawURL string) (page Page, err error) {
	start := time.Now()
	defer func() { observe(MethodChallenge, start, err) }()

	if _, err = checkScheme(rawURL); err != nil {
		return Page{}, fmt.Errorf("challenge fetch %s: %w", rawURL, err)
	}

	// Attempts and the waits between them share one deadline.
	runCtx, cancel := context.WithTimeout(ctx, challengeBudget)
	defer cancel()

	collector, err := s.newCollector(runCtx)
	if err != nil {
		return Page{}, fmt.Errorf("challenge fetch %s: %w", rawURL, err)
	}

	var last *colly.Response
	collector.OnResponse(func(r *colly.Response) { last = r })

	visit := func() (Page, error) {
		last = nil
		visitErr := collector.Visit(rawURL)
		if last == nil {
			if visitErr == nil {
				visitErr = errors.New("no response")
			}
			return Page{}, visitErr
		}
		if isChallenge(last.StatusCode, last.Body) {
			return Page{}, ErrChallengeUnsolved
		}
		if last.StatusCode >= http.StatusBadRequest {
			return Page{}, fmt.Errorf("unexpected status %d", last.StatusCode)
		}
		return Page{Markup: string(last.Body), FinalURL: last.Request.URL.String()}, nil
	}

	retry := retrypolicy.NewBuilder[Page]().
		HandleErrors(ErrChallengeUnsolved).
		WithMaxAttempts(challengeAttempts).
		WithDelay(s.challengeDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[Page]) {
			challengeRetriesTotal.Inc()
			s.logger.WithFields(logging.Fields{
				"url":     rawURL,
				"attempt": e.Attempts(),
			}).Debug("Challenge interstitial, retrying with cookies")
		}).
		Build()

	page, err = failsafe.With[Page](retry).WithContext(runCtx).Get(visit)
	if err != nil {
		return Page{}, fmt.Errorf("challenge fetch %s: %w", rawURL, err)
	}
	return page, nil
}

func (s *ChallengeStrategy) newCollector(ctx context.Context) (*colly.Collector, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	ua := randomUserAgent()
	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.MaxBodySize(maxPageBytes),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(s.transport)
	c.SetCookieJar(jar)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		setBrowserHeaders(*r.Headers, ua)
	})
	return c, nil
}

// isChallenge reports whether a response is an anti-bot interstitial rather
// than the page itself.
func isChallenge(status int, body []byte) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range challengeMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}
