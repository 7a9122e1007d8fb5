package telegram

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// RenderDocument flattens a dashboard document into a MarkdownV2 message.
// Telegram has no embed concept, so titled fields become bold headings with
// their values in monospace blocks.
func RenderDocument(doc core.Document) string {
	var b strings.Builder

	b.WriteString(FormatBold(doc.Title))
	b.WriteString("\n")
	if doc.Description != "" {
		b.WriteString(EscapeMdV2(doc.Description))
		b.WriteString("\n")
	}

	for _, field := range doc.Fields {
		b.WriteString("\n")
		b.WriteString(FormatBold(field.Name))
		b.WriteString("\n```\n")
		// Code blocks only need backslash and backtick escaping.
		value := strings.ReplaceAll(field.Value, `\`, `\\`)
		value = strings.ReplaceAll(value, "`", "\\`")
		b.WriteString(value)
		b.WriteString("\n```\n")
	}

	if doc.Footer != "" {
		b.WriteString("\n")
		footer := doc.Footer
		if !doc.Timestamp.IsZero() {
			footer = fmt.Sprintf("%s %s", doc.Footer, doc.Timestamp.Format("02.01.2006 15:04:05"))
		}
		b.WriteString(FormatItalic(footer))
	}

	return b.String()
}
