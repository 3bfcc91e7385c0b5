package telegram

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/router"
)

// лимит телеграма на одно сообщение
const maxMessageLen = 4096

var markdownBold = regexp.MustCompile(`\*\*(.+?)\*\*`)

// MarkdownToHTML экранирует текст и переводит **жирный** в <b>жирный</b>.
// Остальная разметка остается текстом.
func MarkdownToHTML(text string) string {
	escaped := html.EscapeString(text)
	return markdownBold.ReplaceAllString(escaped, "<b>$1</b>")
}

// FormatResults - блок живых данных в HTML для телеграма
func FormatResults(results *domain.SearchResults) string {
	return MarkdownToHTML(router.Format(results))
}

func FormatHistory(convs []domain.Conversation, activeID string) string {
	var sb strings.Builder
	sb.WriteString("<b>Ваши диалоги:</b>\n\n")

	for i, c := range convs {
		marker := " "
		if c.ID == activeID {
			marker = "▶"
		}
		fmt.Fprintf(&sb, "%s %d. %s\n   %s\n",
			marker,
			i+1,
			html.EscapeString(c.Title),
			c.UpdatedAt.Format("02.01.2006 15:04"),
		)
	}

	fmt.Fprintf(&sb, "\nВсего: %d", len(convs))
	return sb.String()
}

func FormatModels(models []llm.Model, current string) string {
	var sb strings.Builder
	sb.WriteString("<b>Доступные модели:</b>\n\n")

	for _, m := range models {
		marker := "○"
		if m.ID == current {
			marker = "●"
		}
		fmt.Fprintf(&sb, "%s <code>%s</code>\n   %s (%s)\n", marker, html.EscapeString(m.ID), html.EscapeString(m.Name), html.EscapeString(m.Provider))
	}

	sb.WriteString("\nВыбор: /model &lt;id&gt;")
	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}
		// не режем посреди UTF-8 последовательности
		for splitPoint > 1 && splitPoint < len(text) && !utf8.RuneStart(text[splitPoint]) {
			splitPoint--
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// сначала ищем пустую строку между секциями
	if i := strings.LastIndex(text[:maxLen], "\n\n"); i > maxLen/2 && !isInsideHTMLTag(text, i) {
		return i + 2
	}

	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if isInsideHTMLTag(text, i) {
			continue
		}
		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}
