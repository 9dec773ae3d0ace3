package views

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// terminalText prepares peer-supplied message text for a tview cell. Emoji
// modifiers that tcell renders as separate cells are dropped, as are control
// characters other than newline and tab, so a peer cannot move the cursor or
// recolor the screen.
func terminalText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			b.WriteRune(unicode.ReplacementChar)
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r), isEmojiModifier(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// previewText is terminalText folded onto one line for the hangout list.
func previewText(s string) string {
	return strings.Join(strings.Fields(terminalText(s)), " ")
}

func isEmojiModifier(r rune) bool {
	switch {
	// Skin tones.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	// Zero width joiner.
	case r == 0x200D:
		return true
	// Variation selectors and their supplement.
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
