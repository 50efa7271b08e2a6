package chat

import (
	"io"
	"sync"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func quietLogger() logging.Logger {
	l := logging.NewLogger()
	l.SetOutput(io.Discard)
	return l
}

func newClassifier() *IntentClassifier {
	return NewIntentClassifier(cache.New[Intent](cache.Options{Name: "intents", TTL: time.Hour}, cache.MetricsHooks{}))
}
