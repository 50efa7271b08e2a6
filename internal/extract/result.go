package extract

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Metadata struct {
	OGTitle       string `json:"ogTitle"`
	OGDescription string `json:"ogDescription"`
	OGImage       string `json:"ogImage"`
	Keywords      string `json:"keywords"`
	Author        string `json:"author"`
}

// Result is the structured view of a page. Slices are never nil so they
// serialize as [] rather than null.
type Result struct {
	URL              string   `json:"url"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Price            string   `json:"price"`
	Benefits         []string `json:"benefits"`
	Testimonials     []string `json:"testimonials"`
	CTA              string   `json:"cta"`
	Images           []Image  `json:"images"`
	Videos           []string `json:"videos"`
	Contact          Contact  `json:"contact"`
	Metadata         Metadata `json:"metadata"`
	ExtractionMethod string   `json:"extractionMethod"`
}

// MethodDefault marks a result that was not extracted from the page.
const MethodDefault = "default"

func emptyResult(url string) Result {
	return Result{
		URL:          url,
		Benefits:     []string{},
		Testimonials: []string{},
		Images:       []Image{},
		Videos:       []string{},
	}
}

// DefaultResult is the canned record served when every strategy failed or
// when a chat turn has no URL.
func DefaultResult(url string) Result {
	r := emptyResult(url)
	r.Title = "Produto ou Serviço Incrível"
	r.Description = "Descubra uma solução inovadora que vai transformar sua vida. Aproveite esta oportunidade única!"
	r.Price = "Consulte o preço"
	r.Benefits = []string{
		"Resultados comprovados",
		"Fácil de usar",
		"Suporte especializado",
		"Garantia de satisfação",
	}
	r.Testimonials = []string{
		"Produto excelente, recomendo!",
		"Mudou minha vida para melhor",
		"Atendimento nota 10",
	}
	r.CTA = "QUERO COMPRAR AGORA"
	r.ExtractionMethod = MethodDefault
	return r
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	out := r
	out.Benefits = append([]string{}, r.Benefits...)
	out.Testimonials = append([]string{}, r.Testimonials...)
	out.Images = append([]Image{}, r.Images...)
	out.Videos = append([]string{}, r.Videos...)
	return out
}
