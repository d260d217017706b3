package llm

import (
	"fmt"
	"strings"
)

// Prompt constrains the model to the curriculum.
type Prompt struct {
	Level    string
	Subjects []string
}

// System returns the instruction sent ahead of the question.
func (p Prompt) System() string {
	var sb strings.Builder
	sb.WriteString("أنت مساعد تعليمي لتلاميذ ")
	if p.Level != "" {
		sb.WriteString(p.Level)
	} else {
		sb.WriteString("المرحلة المتوسطة")
	}
	sb.WriteString(" في الجزائر.\n")
	if len(p.Subjects) > 0 {
		fmt.Fprintf(&sb, "أجب فقط عن الأسئلة المتعلقة بالمواد التالية: %s.\n", strings.Join(p.Subjects, "، "))
	}
	sb.WriteString("اذكر اسم المادة في إجابتك، واكتب باللغة العربية بإيجاز ووضوح.\n")
	sb.WriteString("إذا كان السؤال خارج المنهاج فاعتذر باختصار دون الإجابة.")
	return sb.String()
}

// User wraps the student question.
func (p Prompt) User(question string) string {
	return "سؤال التلميذ: " + strings.TrimSpace(question)
}
