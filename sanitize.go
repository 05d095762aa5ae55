package bbs

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// htmlEscaper rewrites every character with meaning in an HTML context to its
// entity. Escaping happens exactly once, at write time; re-applying it to
// already-escaped text compounds the ampersands.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeHTML returns text with & < > " ' / replaced by HTML entities. All
// other characters, including line breaks, pass through unchanged.
func EscapeHTML(text string) string {
	if text == "" {
		return ""
	}
	return htmlEscaper.Replace(text)
}

// Field labels as shown to users in validation messages.
const (
	labelName      = "お名前"
	labelContent   = "メッセージ"
	labelDeleteKey = "削除キー"
)

// ValidateField checks one form field: non-empty after trimming, and at most
// maxLength runes. The returned error embeds the field label and, for length
// violations, the limit.
func ValidateField(value string, maxLength int, label string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%sを入力してください", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLength {
		return fmt.Errorf("%sは%d文字以内で入力してください", label, maxLength)
	}
	return nil
}

// ValidatePost applies ValidateField to every field of in and aggregates all
// failing messages, in field order, into a *ValidationError. Returns nil when
// everything passes.
func ValidatePost(in PostInput) error {
	checks := []struct {
		value string
		max   int
		label string
	}{
		{in.Name, MaxNameLen, labelName},
		{in.Content, MaxContentLen, labelContent},
		{in.DeleteKey, MaxDeleteKeyLen, labelDeleteKey},
	}

	var msgs []string
	for _, c := range checks {
		if err := ValidateField(c.value, c.max, c.label); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Errors: msgs}
	}
	return nil
}
