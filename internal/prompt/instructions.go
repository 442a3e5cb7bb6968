package prompt

import (
	"fmt"
	"strings"

	"github.com/davidbz/shopscribe/internal/domain"
)

const (
	metaTitleLimit       = 60
	metaDescriptionLimit = 160
)

// ProductInstructions describes the expected JSON reply for product copy when
// no response schema can be sent.
func ProductInstructions(seo domain.SEOSettings) string {
	var sb strings.Builder
	sb.WriteString("Antworte ausschließlich mit einem gültigen JSON-Objekt ohne Markdown und ohne weiteren Text. ")
	sb.WriteString("Verwende genau diese Schlüssel:\n")
	sb.WriteString("- \"title_suggestions\": Array mit genau 3 alternativen Produkttiteln als reiner Text\n")
	sb.WriteString("- \"title\": der beste Produkttitel als reiner Text\n")
	sb.WriteString("- \"slug\": URL-Slug nur aus Kleinbuchstaben, Ziffern und Bindestrichen\n")
	sb.WriteString("- \"short_description\": Kurzbeschreibung als HTML, nur <p>, <ul>, <li> und <strong>\n")
	sb.WriteString("- \"description\": ausführliche Beschreibung als HTML, nur <h2>, <h3>, <p>, <ul>, <li> und <strong>")
	writeSEOInstructions(&sb, seo)
	return sb.String()
}

// TermInstructions describes the expected JSON reply for category or brand copy.
func TermInstructions(seo domain.SEOSettings) string {
	var sb strings.Builder
	sb.WriteString("Antworte ausschließlich mit einem gültigen JSON-Objekt ohne Markdown und ohne weiteren Text. ")
	sb.WriteString("Verwende genau diese Schlüssel:\n")
	sb.WriteString("- \"top_description\": einleitender Text oberhalb der Produktliste als HTML, nur <p> und <strong>\n")
	sb.WriteString("- \"bottom_description\": ausführlicher Text unterhalb der Produktliste als HTML, " +
		"nur <h2>, <h3>, <p>, <ul>, <li>, <strong> und <a>")
	writeSEOInstructions(&sb, seo)
	return sb.String()
}

func writeSEOInstructions(sb *strings.Builder, seo domain.SEOSettings) {
	if !seo.Enabled {
		return
	}

	fmt.Fprintf(sb, "\n- \"meta_title\": SEO-Titel mit höchstens %d Zeichen", metaTitleLimit)
	if seo.TitlePixelLimit > 0 {
		fmt.Fprintf(sb, " und höchstens %d Pixel Breite", seo.TitlePixelLimit)
	}
	fmt.Fprintf(sb, "\n- \"meta_description\": Meta-Beschreibung mit höchstens %d Zeichen", metaDescriptionLimit)
	if seo.DescriptionPixelLimit > 0 {
		fmt.Fprintf(sb, " und höchstens %d Pixel Breite", seo.DescriptionPixelLimit)
	}
	sb.WriteString("\n- \"focus_keywords\": Array mit Fokus-Keywords")
	if seo.KeywordLimit > 0 {
		fmt.Fprintf(sb, ", höchstens %d", seo.KeywordLimit)
	}
}

// AppendInstructions adds the instruction block unless the prompt already contains it.
func AppendInstructions(userPrompt, instructions string) string {
	if instructions == "" || strings.Contains(userPrompt, instructions) {
		return userPrompt
	}
	if strings.TrimSpace(userPrompt) == "" {
		return instructions
	}
	return strings.TrimRight(userPrompt, "\n") + "\n\n" + instructions
}
