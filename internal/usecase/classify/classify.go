// Package classify routes a query to the sources it is most likely about.
package classify

import (
	"strings"

	"github.com/kailas-cloud/studysearch/internal/domain/query"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// DefaultKeywords returns the intent keywords per searchable source.
func DefaultKeywords() map[source.Kind][]string {
	return map[source.Kind][]string{
		source.Video: {
			"فيديو", "فيديوهات", "يوتيوب", "youtube", "شرح", "video", "explain",
		},
		source.ExamBank: {
			"فرض", "اختبار", "نموذج", "نماذج", "امتحان", "حلول", "تمارين", "bem",
			"past paper", "model exam",
		},
		source.LessonBank: {
			"درس", "دروس", "ملخص", "قوانين", "lesson", "summary",
		},
	}
}

// Classifier selects candidate sources by lexical keyword match. Immutable after New.
type Classifier struct {
	order    []source.Kind
	keywords map[source.Kind][]string
}

// New creates a classifier. order is the fan-out precedence; kinds without
// keywords are only selected by the default fan-out.
func New(order []source.Kind, keywords map[source.Kind][]string) *Classifier {
	kw := make(map[source.Kind][]string, len(keywords))
	for k, words := range keywords {
		for _, w := range words {
			if w = query.Normalize(w); w != "" {
				kw[k] = append(kw[k], w)
			}
		}
	}
	filtered := make([]source.Kind, 0, len(order))
	for _, k := range order {
		if k != source.Assistant {
			filtered = append(filtered, k)
		}
	}
	return &Classifier{order: filtered, keywords: kw}
}

// Classify returns the matching sources in precedence order, or every
// source when no keyword set matches.
func (c *Classifier) Classify(q query.Query) []source.Kind {
	text := q.Normalized()
	var matched []source.Kind
	for _, k := range c.order {
		for _, w := range c.keywords[k] {
			if strings.Contains(text, w) {
				matched = append(matched, k)
				break
			}
		}
	}
	if len(matched) == 0 {
		return append([]source.Kind(nil), c.order...)
	}
	return matched
}
