package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

// historyWindow is how many past messages are quoted in the prompt.
const historyWindow = 5

type Reply struct {
	Response   string     `json:"response"`
	Intent     IntentType `json:"intent"`
	Confidence float64    `json:"confidence"`
	// Prompt is the context block assembled for the turn. It is kept for
	// debugging and never sent to the visitor.
	Prompt string `json:"-"`
}

type Composer struct {
	classifier *IntentClassifier
	logger     logging.Logger
	pick       func(n int) int
}

type ComposerOption func(*Composer)

func WithComposerLogger(logger logging.Logger) ComposerOption {
	return func(c *Composer) { c.logger = logger }
}

// WithPicker replaces the random template choice. pick receives the pool size.
func WithPicker(pick func(n int) int) ComposerOption {
	return func(c *Composer) { c.pick = pick }
}

func NewComposer(classifier *IntentClassifier, opts ...ComposerOption) *Composer {
	c := &Composer{classifier: classifier, pick: rand.IntN}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger()
	}
	return c
}

// Compose answers message from the page record. It never fails: an internal
// fault yields a generic greeting with the general intent.
func (c *Composer) Compose(message string, result extract.Result, history []Message, customInstructions, assistantName string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			composerFallbacksTotal.Inc()
			c.logger.WithFields(logging.Fields{
				"panic": fmt.Sprint(r),
				"title": result.Title,
			}).Error("Composer failed, replying with greeting")
			reply = greeting(result, assistantName)
		}
	}()

	intent := c.classifier.Classify(message)

	prompt := basePrompt(message, result, history, assistantName)
	if customInstructions != "" {
		prompt = customInstructions + "\n\n" + prompt
	}
	prompt += intentDirective(intent.Type, result)

	pool := Templates(intent.Type, result)
	response := pool[c.pick(len(pool))]

	c.logger.WithFields(logging.Fields{
		"intent":     intent.Type,
		"confidence": intent.Confidence,
		"prompt":     prompt,
	}).Debug("Composed reply")

	return Reply{
		Response:   response,
		Intent:     intent.Type,
		Confidence: intent.Confidence,
		Prompt:     prompt,
	}
}

func greeting(result extract.Result, assistantName string) Reply {
	name := assistantName
	if name == "" {
		name = "seu assistente virtual"
	}
	return Reply{
		Response:   "Olá! Sou " + name + " e estou aqui para ajudar você com " + result.Title + ". Como posso te ajudar hoje? 😊",
		Intent:     IntentGeneral,
		Confidence: generalIntent.Confidence,
	}
}

func conversationContext(history []Message) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, string(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func basePrompt(message string, r extract.Result, history []Message, assistantName string) string {
	name := assistantName
	if name == "" {
		name = "um assistente virtual especializado"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é %s e está ajudando um cliente interessado no seguinte produto/serviço:\n\n", name)
	b.WriteString("INFORMAÇÕES DO PRODUTO:\n")
	fmt.Fprintf(&b, "- Título: %s\n", r.Title)
	fmt.Fprintf(&b, "- Descrição: %s\n", r.Description)
	fmt.Fprintf(&b, "- Preço: %s\n", r.Price)
	fmt.Fprintf(&b, "- Benefícios principais: %s\n", firstBenefits(r, 5))
	fmt.Fprintf(&b, "- Call-to-Action: %s\n\n", r.CTA)
	fmt.Fprintf(&b, "CONTEXTO DA CONVERSA:\n%s\n\n", conversationContext(history))
	fmt.Fprintf(&b, "MENSAGEM ATUAL DO CLIENTE: %s\n\n", message)
	b.WriteString("INSTRUÇÕES:\n")
	b.WriteString("- Seja natural, amigável e persuasivo\n")
	b.WriteString("- Use as informações do produto para responder\n")
	b.WriteString("- Mantenha o foco na conversão\n")
	b.WriteString("- Se não souber algo específico, seja honesto\n")
	b.WriteString("- Incentive o cliente a tomar ação\n")
	b.WriteString("- Use emojis moderadamente para tornar a conversa mais amigável\n")
	b.WriteString("- Responda em português brasileiro")
	return b.String()
}

func intentDirective(intent IntentType, r extract.Result) string {
	switch intent {
	case IntentPurchase:
		return "\n\nO cliente demonstrou interesse em comprar. Foque em facilitar a compra, mencione o preço (" +
			r.Price + ") e incentive a ação imediata."
	case IntentQuestion:
		return "\n\nO cliente tem dúvidas. Seja didático e explicativo, use as informações do produto para esclarecer."
	case IntentBenefits:
		return "\n\nO cliente quer saber sobre benefícios. Destaque os principais benefícios: " + firstBenefits(r, 3) + "."
	}
	return ""
}
