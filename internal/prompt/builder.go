// Package prompt assembles system prompts, context blocks and response
// constraints for generation calls, and parses the model's replies.
package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/davidbz/shopscribe/internal/domain"
)

// ContextIntro precedes every non-empty context block.
const ContextIntro = "Nutze die folgenden Informationen als Kontext für deinen Text:"

const (
	maxTopProducts = 25
	maxLinks       = 10
)

// Product context labels.
const (
	LabelTitle            = "Titel"
	LabelShortDescription = "Kurzbeschreibung"
	LabelDescription      = "Beschreibung"
	LabelAttributes       = "Attribute"
	LabelImages           = "Bilder"
	LabelBrand            = "Marke"
)

// DefaultBrandTaxonomies lists brand-like taxonomies in detection order.
//
//nolint:gochecknoglobals // read-only default list
var DefaultBrandTaxonomies = []string{
	"product_brand",
	"pwb-brand",
	"yith_product_brand",
	"berocket_brand",
	"brand",
}

// BrandTaxonomiesFunc may reorder or extend the brand taxonomy candidates.
type BrandTaxonomiesFunc func(defaults []string) []string

// BottomMetaKeyFunc resolves the meta key holding a term's lower description.
type BottomMetaKeyFunc func(term *domain.TermContent, key string) string

// GoogleContextFunc returns search and analytics context for a term.
type GoogleContextFunc func(ctx context.Context, term *domain.TermContent, settings domain.Settings) string

// Options carries the caller-supplied overrides. Nil funcs keep the defaults.
type Options struct {
	BrandTaxonomies BrandTaxonomiesFunc
	BottomMetaKey   BottomMetaKeyFunc
	GoogleContext   GoogleContextFunc
}

// ProductContextInput selects which product fragments go into the context block.
type ProductContextInput struct {
	Product    *domain.ProductContent
	Selection  domain.ContextSelection
	Attributes domain.AttributeSelection
	ImageMode  domain.ImageMode
	ImageLimit int
}

// TermContextInput selects which term fragments go into the context block.
type TermContextInput struct {
	Term                *domain.TermContent
	TopProducts         int
	IncludeSlug         bool
	IncludeCount        bool
	IncludeDescriptions bool
	IncludeLinks        bool
}

// Builder builds prompts for both content kinds.
type Builder struct {
	brandTaxonomies []string
	bottomMetaKey   BottomMetaKeyFunc
	googleContext   GoogleContextFunc
}

// NewBuilder creates a builder applying the given overrides.
func NewBuilder(opts Options) *Builder {
	candidates := append([]string(nil), DefaultBrandTaxonomies...)
	if opts.BrandTaxonomies != nil {
		candidates = opts.BrandTaxonomies(candidates)
	}

	return &Builder{
		brandTaxonomies: candidates,
		bottomMetaKey:   opts.BottomMetaKey,
		googleContext:   opts.GoogleContext,
	}
}

// ProductSystemPrompt returns the system prompt for product copy.
func (b *Builder) ProductSystemPrompt(storeContext, tag string) string {
	return b.systemPrompt(storeContext, tag,
		"Du bist ein erfahrener Texter für einen Onlineshop. "+
			"Du schreibst überzeugende, sachlich korrekte Produkttexte auf Deutsch.")
}

// TermSystemPrompt returns the system prompt for category or brand copy.
func (b *Builder) TermSystemPrompt(storeContext, tag string, term *domain.TermContent) string {
	role := "Du bist ein erfahrener Texter für einen Onlineshop. " +
		"Du schreibst überzeugende, suchmaschinenfreundliche Kategorie- und Markentexte auf Deutsch."
	if term != nil && strings.TrimSpace(term.Name) != "" {
		role += fmt.Sprintf(" Du schreibst gerade über %s „%s“.", b.termNoun(term.Taxonomy), strings.TrimSpace(term.Name))
	}
	return b.systemPrompt(storeContext, tag, role)
}

func (b *Builder) systemPrompt(storeContext, tag, role string) string {
	var sb strings.Builder
	if tag != "" {
		fmt.Fprintf(&sb, "[Konversation: %s]\n", tag)
	}
	sb.WriteString(role)

	if ctx := strings.TrimSpace(storeContext); ctx != "" {
		sb.WriteString("\n\nInformationen über den Shop:\n")
		sb.WriteString(ctx)
	}
	return sb.String()
}

func (b *Builder) termNoun(taxonomy string) string {
	for _, candidate := range b.brandTaxonomies {
		if candidate == taxonomy {
			return "die Marke"
		}
	}
	return "die Kategorie"
}

// ComposeUserPrompt prepends a non-empty context block to the operator prompt.
func ComposeUserPrompt(block, userPrompt string) string {
	if block == "" {
		return userPrompt
	}
	return ContextIntro + "\n\n" + block + "\n\n" + userPrompt
}

// ProductContext renders the enabled product fragments separated by blank lines.
func (b *Builder) ProductContext(in ProductContextInput) string {
	p := in.Product
	if p == nil {
		return ""
	}
	sel := in.Selection

	var fragments []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fragments = append(fragments, label+": "+v)
		}
	}

	if sel.Title {
		add(LabelTitle, p.Title)
	}
	if sel.ShortDescription {
		add(LabelShortDescription, p.ShortDescription)
	}
	if sel.Description {
		add(LabelDescription, p.Description)
	}
	if sel.Attributes {
		if block := attributeBlock(p.Attributes, in.Attributes); block != "" {
			fragments = append(fragments, block)
		}
	}
	if sel.Images && in.ImageMode == domain.ImageModeURL {
		if block := imageBlock(p.Images, in.ImageLimit); block != "" {
			fragments = append(fragments, block)
		}
	}
	if sel.Brands {
		fragments = append(fragments, b.brandBlocks(p.BrandTaxonomies)...)
	}

	return strings.Join(fragments, "\n\n")
}

func attributeBlock(attrs []domain.Attribute, selection domain.AttributeSelection) string {
	if selection.IsEmpty() {
		return ""
	}

	var lines []string
	for _, attr := range attrs {
		value := strings.TrimSpace(attr.Value)
		if value == "" || !selection.Includes(attr) {
			continue
		}
		label := strings.TrimSpace(attr.Label)
		if label == "" {
			label = attr.Key
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
	}
	if len(lines) == 0 {
		return ""
	}
	return LabelAttributes + ":\n" + strings.Join(lines, "\n")
}

func imageBlock(images []domain.ImageDescriptor, limit int) string {
	var lines []string
	for _, img := range images {
		if limit > 0 && len(lines) == limit {
			break
		}
		url := strings.TrimSpace(img.URL)
		if url == "" {
			continue
		}
		if label := strings.TrimSpace(img.Label); label != "" {
			lines = append(lines, fmt.Sprintf("- %s - %s", label, url))
		} else {
			lines = append(lines, "- "+url)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return LabelImages + ":\n" + strings.Join(lines, "\n")
}

// brandBlocks renders the brands of the first candidate taxonomy present on the product.
func (b *Builder) brandBlocks(taxonomies map[string][]domain.Brand) []string {
	var brands []domain.Brand
	for _, candidate := range b.brandTaxonomies {
		if found, ok := taxonomies[candidate]; ok {
			brands = found
			break
		}
	}

	var blocks []string
	for _, brand := range brands {
		name := strings.TrimSpace(brand.Name)
		if name == "" {
			continue
		}
		block := LabelBrand + ": " + name
		if desc := strings.TrimSpace(brand.Description); desc != "" {
			block += "\n" + desc
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// TermContext renders the term fragments separated by blank lines.
func (b *Builder) TermContext(ctx context.Context, in TermContextInput, settings domain.Settings) string {
	term := in.Term
	if term == nil {
		return ""
	}

	var fragments []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fragments = append(fragments, label+": "+v)
		}
	}

	add("Name", term.Name)
	if in.IncludeSlug {
		add("Slug", term.Slug)
	}
	if in.IncludeCount {
		fragments = append(fragments, fmt.Sprintf("Anzahl Produkte: %d", term.Count))
	}
	if in.IncludeDescriptions {
		add("Aktuelle obere Beschreibung", term.Description)
		add("Aktuelle untere Beschreibung", term.Meta[b.resolveBottomMetaKey(term, settings)])
	}
	if in.TopProducts > 0 {
		if block := topProductsBlock(term.TopProducts, in.TopProducts); block != "" {
			fragments = append(fragments, block)
		}
	}
	if in.IncludeLinks {
		if block := linksBlock(term); block != "" {
			fragments = append(fragments, block)
		}
	}
	if b.googleContext != nil {
		if extra := b.googleContext(ctx, term, settings); strings.TrimSpace(extra) != "" {
			fragments = append(fragments, extra)
		}
	}

	return strings.Join(fragments, "\n\n")
}

func (b *Builder) resolveBottomMetaKey(term *domain.TermContent, settings domain.Settings) string {
	key := strings.TrimSpace(settings.TermBottomMetaKey)
	if key == "" {
		key = domain.DefaultBottomMetaKey
	}
	if b.bottomMetaKey != nil {
		if override := strings.TrimSpace(b.bottomMetaKey(term, key)); override != "" {
			key = override
		}
	}
	return key
}

func topProductsBlock(products []domain.TopProduct, requested int) string {
	limit := min(max(requested, 1), maxTopProducts)

	sorted := make([]domain.TopProduct, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.Name) != "" {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sales > sorted[j].Sales
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if len(sorted) == 0 {
		return ""
	}

	lines := make([]string, 0, len(sorted))
	for _, p := range sorted {
		lines = append(lines, fmt.Sprintf("- %s (%d Verkäufe)", strings.TrimSpace(p.Name), p.Sales))
	}
	return "Meistverkaufte Produkte:\n" + strings.Join(lines, "\n")
}

func linksBlock(term *domain.TermContent) string {
	categories := linkLines(term.CategoryLinks, term.ID)
	brands := linkLines(term.BrandLinks, term.ID)
	if len(categories) == 0 && len(brands) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Interne Links: Baue 2 bis 5 der folgenden Links passend als HTML-Anker " +
		"(<a href=\"URL\">Name</a>) in den Text ein.")
	if len(categories) > 0 {
		sb.WriteString("\nKategorien:\n")
		sb.WriteString(strings.Join(categories, "\n"))
	}
	if len(brands) > 0 {
		sb.WriteString("\nMarken:\n")
		sb.WriteString(strings.Join(brands, "\n"))
	}
	return sb.String()
}

func linkLines(links []domain.Link, selfID string) []string {
	var lines []string
	for _, link := range links {
		if len(lines) == maxLinks {
			break
		}
		if link.ID != "" && link.ID == selfID {
			continue
		}
		name, url := strings.TrimSpace(link.Name), strings.TrimSpace(link.URL)
		if name == "" || url == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", name, url))
	}
	return lines
}
