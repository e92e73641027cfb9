package textnorm

import (
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain hiragana", "ねこ", "ねこ"},
		{"half-width spaces stripped", " ね こ ", "ねこ"},
		{"full-width spaces stripped", "ね　こ", "ねこ"},
		{"lowercased", "Dog", "dog"},
		{"full-width alnum folded", "ｄｏｇ１２３", "dog123"},
		{"wave dash folded", "9時〜17時", "9時~17時"},
		{"fullwidth tilde folded", "9時～17時", "9時~17時"},
		{"punctuation stripped", "ねこ。かわいい！", "ねこかわいい"},
		{"brackets stripped", "「ねこ」（かわいい）", "ねこかわいい"},
		{"halfwidth kana punctuation stripped", "ﾈｺ｡", "ネコ"},
		{"mixed", "　Ｎｅｋｏ、 だよ？", "nekoだよ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "ねこ", "いぬ", "Dog!", "漫☆画太郎",
		"　Ｎｅｋｏ、 だよ？", "ﾈｺ｡", "9時〜17時",
		"キタダサン", "北田さん", "test", "https://tabelog.com/tokyo/A1301/",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dash variants folded", "11:00―14:00", "11:00-14:00"},
		{"long vowel mark folded", "11:00ー14:00", "11:00-14:00"},
		{"middle dot folded", "月・火", "月·火"},
		{"whitespace collapsed", "11:00  -  14:00", "11:00 - 14:00"},
		{"full-width digits folded", "１１:００-１４:００", "11:00-14:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeHours(tt.input); got != tt.want {
				t.Errorf("NormalizeHours(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHoursCap(t *testing.T) {
	t.Parallel()

	long := ""
	for range 60 {
		long += "営業"
	}
	got := NormalizeHours(long)
	if n := utf8.RuneCountInString(got); n > 100 {
		t.Errorf("NormalizeHours should cap at 100 runes, got %d", n)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"ねこです", 2, "ねこ"},
		{"ねこ", 0, ""},
		{"", 5, ""},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.n); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}
