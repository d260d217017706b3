package source

import "fmt"

// Kind identifies an external result source.
type Kind string

// Source kinds.
const (
	ExamBank   Kind = "exam_bank"
	LessonBank Kind = "lesson_bank"
	Video      Kind = "video"
	// Assistant is the language-model fallback. It is never selected by the classifier.
	Assistant Kind = "assistant"
)

// Searchable returns the kinds backed by a search adapter, in default precedence order.
func Searchable() []Kind {
	return []Kind{ExamBank, LessonBank, Video}
}

// DefaultOrder is the render precedence: exam bank, lesson bank, video, assistant.
func DefaultOrder() []Kind {
	return []Kind{ExamBank, LessonBank, Video, Assistant}
}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == ExamBank || k == LessonBank || k == Video || k == Assistant
}

// Label returns the default display name of the source.
func (k Kind) Label() string {
	switch k {
	case ExamBank:
		return "DzExams"
	case LessonBank:
		return "Eddirasa"
	case Video:
		return "يوتيوب"
	case Assistant:
		return "المساعد الذكي"
	default:
		return string(k)
	}
}

// Icon returns the emoji shown next to the source header.
func (k Kind) Icon() string {
	switch k {
	case ExamBank:
		return "📝"
	case LessonBank:
		return "📚"
	case Video:
		return "📺"
	case Assistant:
		return "🤖"
	default:
		return ""
	}
}

// Parse converts a config value into a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown source %q (valid: exam_bank, lesson_bank, video, assistant)", s)
	}
	return k, nil
}

// ParseOrder parses a precedence list. Each kind may appear at most once;
// kinds missing from the list are appended in default order.
func ParseOrder(names []string) ([]Kind, error) {
	seen := make(map[Kind]struct{}, len(names))
	order := make([]Kind, 0, len(DefaultOrder()))
	for _, n := range names {
		k, err := Parse(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("source %q listed twice", n)
		}
		seen[k] = struct{}{}
		order = append(order, k)
	}
	for _, k := range DefaultOrder() {
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
	}
	return order, nil
}
