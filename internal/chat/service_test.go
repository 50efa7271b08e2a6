package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
)

type extractorStub struct {
	calls  []string
	method fetch.Method
	result extract.Result
}

func (e *extractorStub) Extract(_ context.Context, rawURL string, method fetch.Method) extract.Result {
	e.calls = append(e.calls, rawURL)
	e.method = method
	r := e.result
	r.URL = rawURL
	return r
}

type failingInstructions struct{}

func (failingInstructions) Store(context.Context, string) (string, error) { return "", errors.New("down") }
func (failingInstructions) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("down")
}
func (failingInstructions) Len(context.Context) (int, error) { return 0, errors.New("down") }

type serviceHarness struct {
	service      *Service
	extractor    *extractorStub
	instructions *MemoryInstructionStore
	store        *ConversationStore
}

func newServiceHarness(opts ...ServiceOption) *serviceHarness {
	clock := newFakeClock()
	ex := &extractorStub{result: samplePage()}
	instructions := newMemoryStore(clock)
	store := newConversationStore(clock, 20)
	composer := NewComposer(newClassifier(), WithComposerLogger(quietLogger()), WithPicker(fixedPicker(0)))
	opts = append([]ServiceOption{WithServiceLogger(quietLogger())}, opts...)
	return &serviceHarness{
		service:      NewService(ex, instructions, store, composer, opts...),
		extractor:    ex,
		instructions: instructions,
		store:        store,
	}
}

func TestHandleTurnWithURL(t *testing.T) {
	h := newServiceHarness()

	reply := h.service.HandleTurn(context.Background(), Turn{
		Message:        "quanto custa?",
		URL:            "https://loja.com/curso",
		ConversationID: "visita-1",
	})

	if len(h.extractor.calls) != 1 || h.extractor.method != fetch.MethodAuto {
		t.Fatalf("expected one auto extraction, got %v / %v", h.extractor.calls, h.extractor.method)
	}
	if reply.Intent != IntentPurchase || !strings.Contains(reply.Response, "R$ 297,00") {
		t.Fatalf("unexpected reply %+v", reply)
	}

	history := h.store.History("visita-1_https://loja.com/curso")
	if len(history) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "quanto custa?" {
		t.Fatalf("unexpected user message %+v", history[0])
	}
	if history[1].Role != RoleAssistant || history[1].Content != reply.Response {
		t.Fatalf("unexpected assistant message %+v", history[1])
	}
}

func TestHandleTurnWithoutURLUsesDefaultRecord(t *testing.T) {
	h := newServiceHarness()

	reply := h.service.HandleTurn(context.Background(), Turn{Message: "oi"})

	if len(h.extractor.calls) != 0 {
		t.Fatalf("expected no extraction without url")
	}
	if !strings.Contains(reply.Response, extract.DefaultResult("").Title) {
		t.Fatalf("expected default record in reply, got %q", reply.Response)
	}
	if len(h.store.History("default_default")) != 2 {
		t.Fatalf("expected turn stored under default_default")
	}
}

func TestHandleTurnAppliesInstructionsAndName(t *testing.T) {
	h := newServiceHarness(WithAssistantName("Lia"))
	id, err := h.instructions.Store(context.Background(), "Nunca ofereça desconto.")
	if err != nil {
		t.Fatal(err)
	}

	reply := h.service.HandleTurn(context.Background(), Turn{Message: "oi", InstructionsID: id})
	if !strings.HasPrefix(reply.Prompt, "Nunca ofereça desconto.\n\nVocê é Lia") {
		t.Fatalf("expected instructions and configured name in prompt, got %q", reply.Prompt[:60])
	}

	reply = h.service.HandleTurn(context.Background(), Turn{Message: "oi", InstructionsID: id, AssistantName: "Rui"})
	if !strings.Contains(reply.Prompt, "Você é Rui") {
		t.Fatalf("expected turn name to win over configured name")
	}
}

func TestHandleTurnUnknownInstructionsIgnored(t *testing.T) {
	h := newServiceHarness()
	reply := h.service.HandleTurn(context.Background(), Turn{Message: "oi", InstructionsID: "inst_0_missing00"})
	if !strings.HasPrefix(reply.Prompt, "Você é") {
		t.Fatalf("expected prompt without instructions, got %q", reply.Prompt[:40])
	}
}

func TestHandleTurnInstructionStoreFailure(t *testing.T) {
	clock := newFakeClock()
	composer := NewComposer(newClassifier(), WithComposerLogger(quietLogger()), WithPicker(fixedPicker(0)))
	s := NewService(&extractorStub{result: samplePage()}, failingInstructions{}, newConversationStore(clock, 20), composer, WithServiceLogger(quietLogger()))

	reply := s.HandleTurn(context.Background(), Turn{Message: "como funciona?", InstructionsID: "inst_1_abc"})
	if reply.Intent != IntentQuestion {
		t.Fatalf("expected turn to proceed without instructions, got %+v", reply)
	}
}

func TestHandleTurnQuotesHistory(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()
	h.service.HandleTurn(ctx, Turn{Message: "primeira pergunta", ConversationID: "c"})
	reply := h.service.HandleTurn(ctx, Turn{Message: "segunda", ConversationID: "c"})

	if !strings.Contains(reply.Prompt, "user: primeira pergunta\nassistant: ") {
		t.Fatalf("expected previous turn in context:\n%s", reply.Prompt)
	}
	if h.service.ConversationCount() != 1 || h.service.IntentCount() != 2 {
		t.Fatalf("unexpected counts conversations=%d intents=%d", h.service.ConversationCount(), h.service.IntentCount())
	}
}
