package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

// FallbackOrder is the order strategies are retried in after the chosen one
// fails. The chosen method is skipped.
var FallbackOrder = []fetch.Method{
	fetch.MethodHTTP,
	fetch.MethodChallenge,
	fetch.MethodPlaywright,
	fetch.MethodRod,
}

// Strategies holds one implementation per concrete method.
type Strategies struct {
	HTTP       fetch.Strategy
	Challenge  fetch.Strategy
	Playwright fetch.Strategy
	Rod        fetch.Strategy
}

// For returns the strategy for m, or nil for MethodAuto and unset slots.
func (s Strategies) For(m fetch.Method) fetch.Strategy {
	switch m {
	case fetch.MethodHTTP:
		return s.HTTP
	case fetch.MethodChallenge:
		return s.Challenge
	case fetch.MethodPlaywright:
		return s.Playwright
	case fetch.MethodRod:
		return s.Rod
	case fetch.MethodAuto:
		return nil
	}
	return nil
}

type Engine struct {
	strategies Strategies
	cache      *cache.Cache[Result]
	logger     logging.Logger
	selector   func(rawURL string) fetch.Method
}

type EngineOption func(*Engine)

func WithLogger(logger logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithSelector replaces fetch.SelectMethod for MethodAuto requests.
func WithSelector(fn func(rawURL string) fetch.Method) EngineOption {
	return func(e *Engine) { e.selector = fn }
}

func NewEngine(strategies Strategies, results *cache.Cache[Result], opts ...EngineOption) *Engine {
	e := &Engine{
		strategies: strategies,
		cache:      results,
		selector:   fetch.SelectMethod,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger()
	}
	return e
}

// CacheKey is the key a (url, method) request is cached under. MethodAuto is
// part of the key as requested, not as resolved.
func CacheKey(rawURL string, method fetch.Method) string {
	return rawURL + "_" + method.String()
}

// Extract returns the record for rawURL. It always returns a usable record:
// when every strategy fails it returns DefaultResult, which is not cached.
//
// Concurrent calls for the same uncached key share one fetch chain. The chain
// runs detached from ctx's cancellation so a caller hanging up does not fail
// the others waiting on it; strategy timeouts bound it instead.
func (e *Engine) Extract(ctx context.Context, rawURL string, method fetch.Method) Result {
	key := CacheKey(rawURL, method)
	res, err := e.cache.Load(context.WithoutCancel(ctx), key, func(ctx context.Context, _ string) (Result, bool, error) {
		r, ok := e.run(ctx, rawURL, method)
		return r, ok, nil
	})
	if err != nil {
		return DefaultResult(rawURL)
	}
	return res.Clone()
}

// CachedCount reports how many records the extraction cache holds.
func (e *Engine) CachedCount() int { return e.cache.Len() }

func (e *Engine) run(ctx context.Context, rawURL string, method fetch.Method) (Result, bool) {
	start := time.Now()
	defer func() { extractionDuration.Observe(time.Since(start).Seconds()) }()

	chosen := method
	if chosen == fetch.MethodAuto {
		chosen = e.selector(rawURL)
	}
	log := e.logger.WithFields(logging.Fields{"url": rawURL, "method": chosen.String()})
	log.Info("Extracting page")

	used := chosen
	page, err := e.attempt(ctx, chosen, rawURL)
	if err != nil {
		log.WithError(err).Warn("Extraction strategy failed, falling back")
		for _, m := range FallbackOrder {
			if m == chosen {
				continue
			}
			fallbacksTotal.WithLabelValues(m.String()).Inc()
			page, err = e.attempt(ctx, m, rawURL)
			if err == nil {
				used = m
				break
			}
			log.WithError(err).WithField("fallback", m.String()).Warn("Fallback strategy failed")
		}
	}

	if err != nil {
		log.WithError(err).Error("All extraction strategies failed, serving default record")
		extractionsTotal.WithLabelValues(MethodDefault).Inc()
		return DefaultResult(rawURL), false
	}

	res := Parse(page.Markup, page.FinalURL)
	res.ExtractionMethod = used.String()
	extractionsTotal.WithLabelValues(res.ExtractionMethod).Inc()
	log.WithField("used", res.ExtractionMethod).Info("Extraction complete")
	return res, true
}

// attempt runs one strategy, turning a panic into an error.
func (e *Engine) attempt(ctx context.Context, m fetch.Method, rawURL string) (page fetch.Page, err error) {
	s := e.strategies.For(m)
	if s == nil {
		return fetch.Page{}, fmt.Errorf("no strategy configured for %s", m)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s strategy panicked: %v", m, r)
		}
	}()
	return s.Fetch(ctx, rawURL)
}
