package chat

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
)

type IntentType string

const (
	IntentPurchase IntentType = "purchase"
	IntentQuestion IntentType = "question"
	IntentBenefits IntentType = "benefits"
	IntentGeneral  IntentType = "general"
)

type Intent struct {
	Type              IntentType `json:"type"`
	Confidence        float64    `json:"confidence"`
	SuggestedResponse string     `json:"suggestedResponse"`
}

type intentBucket struct {
	intent   Intent
	keywords []string
}

// Buckets are checked in order; the first one with a matching keyword wins.
var intentBuckets = []intentBucket{
	{
		intent:   Intent{Type: IntentPurchase, Confidence: 0.9, SuggestedResponse: "purchase"},
		keywords: []string{"comprar", "preço", "valor", "quanto custa", "adquirir", "pagar", "pagamento"},
	},
	{
		intent:   Intent{Type: IntentQuestion, Confidence: 0.8, SuggestedResponse: "explanation"},
		keywords: []string{"como", "funciona", "dúvida", "pergunta", "explicar", "entender"},
	},
	{
		intent:   Intent{Type: IntentBenefits, Confidence: 0.8, SuggestedResponse: "benefits"},
		keywords: []string{"benefício", "vantagem", "resultado", "ajuda", "melhora"},
	},
}

var generalIntent = Intent{Type: IntentGeneral, Confidence: 0.5, SuggestedResponse: "general"}

const intentKeyRunes = 50

// IntentClassifier maps a visitor message to a keyword bucket. Results are
// cached by the lowercased first 50 runes of the message, so two messages
// sharing that prefix share a classification.
type IntentClassifier struct {
	cache *cache.Cache[Intent]
}

func NewIntentClassifier(intents *cache.Cache[Intent]) *IntentClassifier {
	return &IntentClassifier{cache: intents}
}

func lowerPT(s string) string { return cases.Lower(language.BrazilianPortuguese).String(s) }

func IntentCacheKey(message string) string {
	lower := lowerPT(message)
	if utf8.RuneCountInString(lower) > intentKeyRunes {
		lower = string([]rune(lower)[:intentKeyRunes])
	}
	return "intent_" + lower
}

func (ic *IntentClassifier) Classify(message string) Intent {
	key := IntentCacheKey(message)
	if cached, ok := ic.cache.Get(key); ok {
		return cached
	}
	intent := classify(lowerPT(message))
	ic.cache.Set(key, intent)
	return intent
}

// CachedCount reports how many classifications are cached.
func (ic *IntentClassifier) CachedCount() int { return ic.cache.Len() }

func classify(lower string) Intent {
	for _, b := range intentBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.intent
			}
		}
	}
	return generalIntent
}
