package slug

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Michael Jordan", "michael-jordan"},
		{"suffix with period", "Ken Griffey Jr.", "ken-griffey-jr"},
		{"surrounding and interior whitespace", "  Ken Griffey   Jr.  ", "ken-griffey-jr"},
		{"apostrophe dropped", "O'Neal", "oneal"},
		{"brand", "Topps Chrome", "topps-chrome"},
		{"already normalized", "topps-chrome", "topps-chrome"},
		{"mixed punctuation", "Panini Prizm (Silver)", "panini-prizm-silver"},
		{"digits kept", "1st Bowman", "1st-bowman"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
		{"tabs and newlines", "Upper\tDeck\nSP", "upper-deck-sp"},
		{"repeated hyphens", "Chrome -- Refractor", "chrome-refractor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Michael Jordan",
		"  Ken Griffey   Jr.  ",
		"O'Neal",
		"topps-chrome",
		"",
		"!!!",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeOr(t *testing.T) {
	if got := NormalizeOr("", "Base"); got != "base" {
		t.Errorf("NormalizeOr(\"\", \"Base\") = %q, want \"base\"", got)
	}
	if got := NormalizeOr("   ", "Base"); got != "base" {
		t.Errorf("NormalizeOr with blank input = %q, want \"base\"", got)
	}
	if got := NormalizeOr("Refractor", "Base"); got != "refractor" {
		t.Errorf("NormalizeOr(\"Refractor\", \"Base\") = %q, want \"refractor\"", got)
	}
}
