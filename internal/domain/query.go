package domain

import (
	"strings"
)

const MaxQueryLength = 1000

type QueryRequest struct {
	UserID string
	Text   string
}

func (q *QueryRequest) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}

	if len(q.Text) > MaxQueryLength {
		return ErrQueryTooLong
	}

	return nil
}

func (q *QueryRequest) Sanitize() {
	q.Text = TruncateQuery(strings.TrimSpace(q.Text))
}

// TruncateQuery обрезает запрос до MaxQueryLength байт, не ломая UTF-8
func TruncateQuery(s string) string {
	if len(s) <= MaxQueryLength {
		return s
	}
	cut := MaxQueryLength
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

type QueryResponse struct {
	Query     string         `json:"query"`
	Results   *SearchResults `json:"results"`
	Formatted string         `json:"formatted"`
}
