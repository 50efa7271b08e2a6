package extract

import (
	"fmt"
	"strings"
	"testing"
)

const salesPage = `<!DOCTYPE html>
<html><head>
<title>Curso Online | Escola</title>
<meta property="og:title" content="Curso Completo de Marketing Digital">
<meta property="og:description" content="A formação mais completa do mercado">
<meta property="og:image" content="https://cdn.escola.com/og.png">
<meta name="keywords" content="marketing, curso">
<meta name="author" content="Escola Digital">
<meta name="description" content="Short">
</head><body>
<h1>Página não encontrada</h1>
<h1>Domine o Marketing Digital em 30 dias</h1>
<div class="description"><p>Um programa prático com aulas semanais, mentorias ao vivo e uma comunidade ativa para tirar dúvidas.</p></div>
<div class="pricing"><span class="price">De R$ 997,00 por apenas</span></div>
<ul class="benefits">
  <li>Aulas gravadas em alta definição</li>
  <li>Certificado reconhecido</li>
  <li>Curto</li>
  <li>Aulas gravadas em alta definição</li>
</ul>
<ul><li>✓ Suporte direto com os professores</li></ul>
<div class="depoimentos">A Maria disse que o curso mudou a carreira dela por completo.</div>
<a href="/checkout" class="btn">Quero comprar agora</a>
<img src="/img/capa.png" alt="Capa">
<img src="data:image/png;base64,AAAA" alt="inline">
<img src="https://cdn.escola.com/aluno.jpg">
<iframe src="https://www.youtube.com/embed/abc"></iframe>
<video><source src="/media/intro.mp4"></video>
<footer>contato@escola.com.br | (11) 98765-4321</footer>
</body></html>`

func TestParseSalesPage(t *testing.T) {
	r := Parse(salesPage, "https://escola.com/curso/marketing")

	if r.URL != "https://escola.com/curso/marketing" {
		t.Fatalf("unexpected url %q", r.URL)
	}
	// the first h1 is skipped as an error page heading, the second wins over og:title
	if r.Title != "Domine o Marketing Digital em 30 dias" {
		t.Fatalf("unexpected title %q", r.Title)
	}
	if !strings.HasPrefix(r.Description, "Um programa prático") {
		t.Fatalf("unexpected description %q", r.Description)
	}
	if r.Price != "R$ 997,00" {
		t.Fatalf("unexpected price %q", r.Price)
	}
	wantBenefits := []string{"Aulas gravadas em alta definição", "Certificado reconhecido", "✓ Suporte direto com os professores"}
	if strings.Join(r.Benefits, "|") != strings.Join(wantBenefits, "|") {
		t.Fatalf("unexpected benefits %q", r.Benefits)
	}
	if len(r.Testimonials) != 1 || !strings.Contains(r.Testimonials[0], "Maria") {
		t.Fatalf("unexpected testimonials %q", r.Testimonials)
	}
	if r.CTA != "Quero comprar agora" {
		t.Fatalf("unexpected cta %q", r.CTA)
	}
	if len(r.Images) != 2 || r.Images[0].Src != "https://escola.com/img/capa.png" || r.Images[0].Alt != "Capa" {
		t.Fatalf("unexpected images %+v", r.Images)
	}
	if r.Images[1].Src != "https://cdn.escola.com/aluno.jpg" {
		t.Fatalf("absolute image should be kept, got %q", r.Images[1].Src)
	}
	if len(r.Videos) != 2 || r.Videos[0] != "https://www.youtube.com/embed/abc" || r.Videos[1] != "/media/intro.mp4" {
		t.Fatalf("unexpected videos %q", r.Videos)
	}
	if r.Contact.Email != "contato@escola.com.br" || r.Contact.Phone != "(11) 98765-4321" {
		t.Fatalf("unexpected contact %+v", r.Contact)
	}
	if r.Metadata.OGTitle != "Curso Completo de Marketing Digital" || r.Metadata.Author != "Escola Digital" {
		t.Fatalf("unexpected metadata %+v", r.Metadata)
	}
}

func TestParseTitleFallsBackToMeta(t *testing.T) {
	page := `<html><head><meta property="og:title" content="Mentoria Premium de Vendas"><title>x</title></head>
	<body><h1>Oi</h1></body></html>`
	if got := Parse(page, "").Title; got != "Mentoria Premium de Vendas" {
		t.Fatalf("expected og:title fallback, got %q", got)
	}
}

func TestParseTitleRejectsError(t *testing.T) {
	page := `<html><head><title>Server ERROR occurred</title></head><body></body></html>`
	if got := Parse(page, "").Title; got != "" {
		t.Fatalf("expected no title, got %q", got)
	}
}

func TestParseDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("palavra ", 100)
	page := `<html><body><p>Aceite os cookie para continuar navegando neste site por favor agora.</p><p>` + long + `</p></body></html>`
	got := Parse(page, "").Description
	if runeLen(got) != 500 {
		t.Fatalf("expected 500 runes, got %d", runeLen(got))
	}
	if !strings.HasPrefix(got, "palavra") {
		t.Fatalf("cookie paragraph should be skipped, got %q", got[:20])
	}
}

func TestParseCaps(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><ul class=\"features\">")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "<li>Benefício número %02d do produto</li>", i)
	}
	b.WriteString("</ul>")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "<div class=\"reviews\">Cliente %02d: produto excelente, recomendo a todos</div>", i)
	}
	for i := 0; i < 14; i++ {
		fmt.Fprintf(&b, "<img src=\"/i/%d.png\">", i)
	}
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, "<iframe src=\"https://player.vimeo.com/video/%d\"></iframe>", i)
	}
	b.WriteString("</body></html>")

	r := Parse(b.String(), "https://loja.com/")
	if len(r.Benefits) != maxBenefits {
		t.Fatalf("expected %d benefits, got %d", maxBenefits, len(r.Benefits))
	}
	if len(r.Testimonials) != maxTestimonials {
		t.Fatalf("expected %d testimonials, got %d", maxTestimonials, len(r.Testimonials))
	}
	if len(r.Images) != maxImages || len(r.Videos) != maxVideos {
		t.Fatalf("expected capped media, got %d images %d videos", len(r.Images), len(r.Videos))
	}
	seen := map[string]bool{}
	for _, t2 := range append(append([]string{}, r.Benefits...), r.Testimonials...) {
		if seen[t2] {
			t.Fatalf("duplicate entry %q", t2)
		}
		seen[t2] = true
	}
}

func TestParseEmptyMarkup(t *testing.T) {
	r := Parse("", "https://vazio.com")
	if r.Title != "" || r.Price != "" || len(r.Benefits) != 0 || r.Benefits == nil {
		t.Fatalf("expected empty record with non-nil slices, got %+v", r)
	}
}

func TestParsePriceFormats(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{`<span class="valor">R$1.299,90 à vista</span>`, "R$1.299,90"},
		{`<div class="product-price">USD 49.90</div>`, "USD 49.90"},
		{`<p class="amount">only $19 today</p>`, "$19"},
		{`<p class="amount">grátis</p>`, ""},
	}
	for _, tt := range tests {
		if got := Parse(tt.markup, "").Price; got != tt.want {
			t.Errorf("Parse(%q).Price = %q, want %q", tt.markup, got, tt.want)
		}
	}
}
