package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/chat"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

type extractorStub struct {
	url    string
	method fetch.Method
	calls  int
}

func (e *extractorStub) Extract(_ context.Context, rawURL string, method fetch.Method) extract.Result {
	e.calls++
	e.url = rawURL
	e.method = method
	r := extract.DefaultResult(rawURL)
	r.Title = "Página de teste"
	r.ExtractionMethod = "http"
	return r
}

func (e *extractorStub) CachedCount() int { return 3 }

type chatStub struct {
	turns []chat.Turn
}

func (s *chatStub) HandleTurn(_ context.Context, t chat.Turn) chat.Reply {
	s.turns = append(s.turns, t)
	return chat.Reply{Response: "Olá!", Intent: chat.IntentGeneral, Confidence: 0.5}
}

func (s *chatStub) ConversationCount() int { return 4 }
func (s *chatStub) IntentCount() int { return 5 }

type brokenStore struct{}

func (brokenStore) Store(context.Context, string) (string, error) { return "", errors.New("redis down") }
func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenStore) Len(context.Context) (int, error) { return 0, errors.New("redis down") }

type harness struct {
	router       *gin.Engine
	extractor    *extractorStub
	chat         *chatStub
	instructions chat.InstructionStore
}

func quietLogger() logging.Logger {
	l := logging.NewLogger()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T, store chat.InstructionStore) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if store == nil {
		store = chat.NewMemoryInstructionStore(cache.New[string](cache.Options{Name: "instructions", TTL: 24 * time.Hour}, cache.MetricsHooks{}))
	}
	ex := &extractorStub{}
	cs := &chatStub{}
	h := NewHandlers(ex, cs, store, quietLogger())
	h.now = func() time.Time { return time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC) }
	r := gin.New()
	h.Register(r)
	return &harness{router: r, extractor: ex, chat: cs, instructions: store}
}

func (h *harness) do(method, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestExtractRequiresURL(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodGet, "/extract", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "URL é obrigatória", body["error"])
	assert.Zero(t, h.extractor.calls)
}

func TestExtractRejectsUnknownMethod(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodGet, "/extract?url=https://loja.com&method=telepathy", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Zero(t, h.extractor.calls)
}

func TestExtractDefaultsToAuto(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodGet, "/extract?url=https://loja.com/p", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fetch.MethodAuto, h.extractor.method)
	assert.Equal(t, "https://loja.com/p", h.extractor.url)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2025-05-01T12:30:00.000Z", body["timestamp"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Página de teste", data["title"])
	assert.Equal(t, "http", data["extractionMethod"])
	assert.Equal(t, []any{}, data["images"])
}

func TestExtractAcceptsMethodAlias(t *testing.T) {
	h := setup(t, nil)
	w, _ := h.do(http.MethodGet, "/extract?url=https://loja.com&method=puppeteer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fetch.MethodRod, h.extractor.method)
}

func TestStoreInstructions(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodPost, "/store-instructions", `{"instructions":"  Seja cordial.  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Instruções armazenadas com sucesso", body["message"])

	id, _ := body["id"].(string)
	assert.Regexp(t, `^inst_\d+_[0-9a-z]{9}$`, id)
	text, ok, err := h.instructions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Seja cordial.", text)
}

func TestStoreInstructionsValidation(t *testing.T) {
	cases := map[string]string{
		"missing":    `{}`,
		"empty":      `{"instructions":"   "}`,
		"not string": `{"instructions":42}`,
		"malformed":  `{"instructions":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			h := setup(t, nil)
			w, body := h.do(http.MethodPost, "/store-instructions", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestStoreInstructionsBackendFailure(t *testing.T) {
	h := setup(t, brokenStore{})
	w, body := h.do(http.MethodPost, "/store-instructions", `{"instructions":"texto"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestChat(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodPost, "/chat", `{"message":"oi","url":"https://loja.com","instructionsId":"inst_1_abc","assistantName":"Lia"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Olá!", body["response"])
	assert.Equal(t, "general", body["intent"])
	assert.Equal(t, 0.5, body["confidence"])
	assert.Equal(t, "default", body["conversationId"])

	require.Len(t, h.chat.turns, 1)
	assert.Equal(t, chat.Turn{
		Message:        "oi",
		URL:            "https://loja.com",
		ConversationID: "default",
		InstructionsID: "inst_1_abc",
		AssistantName:  "Lia",
	}, h.chat.turns[0])
}

func TestChatRequiresMessage(t *testing.T) {
	h := setup(t, nil)
	w, body := h.do(http.MethodPost, "/chat", `{"url":"https://loja.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Mensagem é obrigatória", body["error"])
	assert.Empty(t, h.chat.turns)

	w, _ = h.do(http.MethodPost, "/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatus(t *testing.T) {
	h := setup(t, nil)
	_, err := h.instructions.Store(context.Background(), "x")
	require.NoError(t, err)

	w, body := h.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])
	assert.NotEmpty(t, body["version"])
	assert.Equal(t, map[string]any{
		"data":          float64(3),
		"conversations": float64(4),
		"intents":       float64(5),
		"instructions":  float64(1),
	}, body["caches"])
}

func TestStatusSurvivesStoreFailure(t *testing.T) {
	h := setup(t, brokenStore{})
	w, body := h.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	caches := body["caches"].(map[string]any)
	assert.Equal(t, float64(0), caches["instructions"])
}
