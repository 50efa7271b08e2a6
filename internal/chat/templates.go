package chat

import (
	"strings"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
)

func firstBenefits(r extract.Result, n int) string {
	if len(r.Benefits) < n {
		n = len(r.Benefits)
	}
	return strings.Join(r.Benefits[:n], ", ")
}

func leadBenefit(r extract.Result, fallback string) string {
	if len(r.Benefits) > 0 && r.Benefits[0] != "" {
		return r.Benefits[0]
	}
	return fallback
}

// Templates returns the reply pool for an intent, filled in from r. Unknown
// intents get the general pool.
func Templates(intent IntentType, r extract.Result) []string {
	switch intent {
	case IntentPurchase:
		return []string{
			"Que ótimo que você tem interesse em " + r.Title + "! 🎉 O investimento é de " + r.Price +
				" e você terá acesso a todos esses benefícios: " + firstBenefits(r, 3) + ". " + r.CTA +
				"! Posso te ajudar com mais alguma informação?",
			"Perfeito! " + r.Title + " é realmente uma excelente escolha. Por " + r.Price + ", você garante " +
				leadBenefit(r, "resultados incríveis") + ". Que tal garantir o seu agora? " + r.CTA + "! 🚀",
		}
	case IntentQuestion:
		return []string{
			"Claro! Vou te explicar sobre " + r.Title + ". " + r.Description + " Os principais benefícios são: " +
				firstBenefits(r, 3) + ". Tem alguma dúvida específica que posso esclarecer?",
			"Ótima pergunta! " + r.Title + " funciona de forma simples e eficaz. " + r.Description + " E o melhor: " +
				leadBenefit(r, "você terá resultados garantidos") + ". O que mais gostaria de saber? 🤔",
		}
	case IntentBenefits:
		return []string{
			"Os benefícios de " + r.Title + " são realmente impressionantes! ✨ Você terá: " + firstBenefits(r, 4) +
				". Por apenas " + r.Price + ", vale muito a pena! " + r.CTA + "!",
			"Excelente pergunta! Com " + r.Title + " você consegue: " + firstBenefits(r, 3) +
				". São resultados comprovados por " + r.Price + ". Que tal garantir o seu? 🎯",
		}
	default:
		return []string{
			"Olá! Sou especialista em " + r.Title + " e estou aqui para te ajudar! 😊 " + r.Description +
				" Como posso te ajudar hoje?",
			"Oi! Que bom ter você aqui! " + r.Title + " é realmente incrível: " +
				leadBenefit(r, "resultados garantidos") + ". Em que posso te ajudar? 🤝",
		}
	}
}
