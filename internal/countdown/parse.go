package countdown

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxInputDigits is the number of digits a user can type (MMSS).
const MaxInputDigits = 4

// maxMinutes bounds the minutes group so minutes*60 cannot overflow.
const maxMinutes = 1<<31 - 1

// SanitizeInput turns raw keystrokes into RawInput.
//
// The text is NFKC-normalized first so compatibility digits such as
// full-width "１２" become "12". Decimal digits of any script are kept as
// their ASCII value ("١٢" is "12") and everything else is dropped. At most
// MaxInputDigits digits are kept, then leading zeros are stripped.
func SanitizeInput(raw string) string {
	normalized := norm.NFKC.String(raw)

	var b strings.Builder
	for _, r := range normalized {
		if b.Len() == MaxInputDigits {
			break
		}
		if unicode.IsDigit(r) {
			b.WriteByte(byte('0' + digitValue(r)))
		}
	}

	return strings.TrimLeft(b.String(), "0")
}

// digitValue returns the value of a decimal digit. Unicode encodes every
// decimal digit set as runs of ten code points starting at zero.
func digitValue(r rune) int {
	zero := r
	for unicode.IsDigit(zero - 1) {
		zero--
	}
	return int(r-zero) % 10
}

// ParseTime converts RawInput into total seconds.
//
// The last two characters are seconds and whatever precedes them is minutes.
// An empty or non-numeric group counts as 0, so ParseTime never fails and
// never returns a negative value. "125" is 1m25s = 85.
func ParseTime(input string) int {
	runes := []rune(input)

	split := len(runes) - 2
	if split < 0 {
		split = 0
	}

	seconds := parseGroup(string(runes[split:]))
	minutes := parseGroup(string(runes[:split]))
	if minutes > maxMinutes {
		minutes = 0
	}

	return minutes*60 + seconds
}

// parseGroup parses an all-digit group, returning 0 for anything else.
func parseGroup(s string) int {
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatDuration renders seconds for display: "1m 05s" from a minute up,
// otherwise "5s". Negative values render as "0s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	rest := seconds % 60

	if minutes > 0 {
		return fmt.Sprintf("%dm %02ds", minutes, rest)
	}
	return fmt.Sprintf("%ds", rest)
}
