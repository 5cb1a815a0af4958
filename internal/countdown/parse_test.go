package countdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"5", 5},
		{"45", 45},
		{"125", 85},
		{"0005", 5},
		{"0130", 90},
		{"9999", 99*60 + 99},
		{"1000", 600},
		{"ab", 0},
		{"1a25", 25},
		{"12ab", 720},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTime(tt.input))
		})
	}
}

func TestParseTime_NeverNegative(t *testing.T) {
	inputs := []string{"-5", "-125", "--", "+1", "99999999999999999999999", "٣٤", "  "}
	for _, in := range inputs {
		assert.GreaterOrEqual(t, ParseTime(in), 0, "input %q", in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{5, "5s"},
		{59, "59s"},
		{60, "1m 00s"},
		{65, "1m 05s"},
		{90, "1m 30s"},
		{5999 + 99, "101m 38s"},
		{-3, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"digits", "130", "130"},
		{"strips leading zeros", "0130", "130"},
		{"drops non digits", "1:30", "130"},
		{"takes four digits before trimming", "001234", "12"},
		{"all zeros", "0000", ""},
		{"full width digits", "１２３", "123"},
		{"letters only", "abc", ""},
		{"arabic-indic digits", "١٢", "12"},
		{"extended arabic-indic digits", "۰۱۳۰", "130"},
		{"devanagari digits", "९०", "90"},
		{"mixed scripts and separators", "١:٣0", "130"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeInput(tt.raw))
		})
	}
}

func TestDigitValue(t *testing.T) {
	for _, zero := range []rune{'0', '٠', '۰', '०', '０', '𝟎', '𝟘'} {
		for i := 0; i < 10; i++ {
			assert.Equal(t, i, digitValue(zero+rune(i)), "%U", zero+rune(i))
		}
	}
}

func TestParseFormat_Scenario0130(t *testing.T) {
	total := ParseTime("0130")
	assert.Equal(t, 90, total)
	assert.Equal(t, "1m 30s", FormatDuration(total))
}
