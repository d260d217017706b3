// Package render turns aggregated results into chat-ready text chunks.
package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kailas-cloud/studysearch/internal/domain/chunk"
	"github.com/kailas-cloud/studysearch/internal/domain/response"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// Fixed user-facing messages.
const (
	OutOfScopeMessage = "عذراً، هذا السؤال خارج نطاق المنهاج الدراسي. 🚫\n" +
		"أنا متخصص فقط في المواد الدراسية، حاول طرح سؤال يتعلق بإحدى المواد."
	noResultsHeader = "عذراً، لم أتمكن من العثور على معلومات حول هذا الموضوع. 😕\n"
	noResultsFooter = "يمكنك محاولة صياغة سؤالك بطريقة مختلفة."
)

// Renderer formats results. Immutable after New.
type Renderer struct {
	chunkLimit int
	level      string
	subjects   []string
}

// New creates a renderer. level and subjects feed the no-results message.
func New(chunkLimit int, level string, subjects []string) *Renderer {
	if chunkLimit <= 0 {
		chunkLimit = chunk.DefaultLimit
	}
	return &Renderer{
		chunkLimit: chunkLimit,
		level:      level,
		subjects:   append([]string(nil), subjects...),
	}
}

// Render concatenates the source blocks in the aggregate's order.
func (r *Renderer) Render(agg response.Aggregated) string {
	var sb strings.Builder
	for _, res := range agg.Results {
		if res.IsEmpty() {
			continue
		}
		writeBlock(&sb, res)
	}
	return sb.String()
}

// Chunks renders the aggregate and splits it at item boundaries.
func (r *Renderer) Chunks(agg response.Aggregated) []string {
	return chunk.Split(r.Render(agg), r.chunkLimit)
}

// Answer renders a language-model answer as a single assistant block.
func (r *Renderer) Answer(text string) []string {
	var sb strings.Builder
	sb.WriteString(header(source.Assistant, source.Assistant.Label()))
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString("\n")
	return chunk.Split(sb.String(), r.chunkLimit)
}

// OutOfScope returns the rejection message for off-topic or banned queries.
func (r *Renderer) OutOfScope() []string {
	return []string{OutOfScopeMessage}
}

// NoResults returns the rephrasing hint, listing the supported subjects.
func (r *Renderer) NoResults() []string {
	var sb strings.Builder
	sb.WriteString(noResultsHeader)
	if len(r.subjects) > 0 {
		if r.level != "" {
			fmt.Fprintf(&sb, "أنا متخصص فقط في المنهاج الدراسي لـ%s في المواد التالية:\n", r.level)
		} else {
			sb.WriteString("أنا متخصص فقط في المواد التالية:\n")
		}
		sb.WriteString(strings.Join(r.subjects, "، "))
		sb.WriteString("\n\n")
	}
	sb.WriteString(noResultsFooter)
	return chunk.Split(sb.String(), r.chunkLimit)
}

func header(kind source.Kind, label string) string {
	if kind == source.Assistant {
		return fmt.Sprintf("إجابة %s %s:\n\n", label, kind.Icon())
	}
	if icon := kind.Icon(); icon != "" {
		return fmt.Sprintf("نتائج البحث من %s %s:\n\n", label, icon)
	}
	return fmt.Sprintf("نتائج البحث من %s:\n\n", label)
}

func writeBlock(sb *strings.Builder, res response.SourceResult) {
	label := res.Label
	if label == "" {
		label = res.Kind.Label()
	}
	sb.WriteString(header(res.Kind, label))

	for i, it := range res.Items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, it.Title())
		if md := it.Metadata(); md != nil {
			if md.Channel != "" {
				fmt.Fprintf(sb, "القناة: %s\n", md.Channel)
			}
			fmt.Fprintf(sb, "عدد المشاهدات: %s\n", humanize.Comma(int64(md.Views)))
		}
		sb.WriteString(it.URL())
		sb.WriteString("\n\n")
	}
}
