package similarity

import (
	"math"
	"strings"
	"testing"
)

func TestCompareNames(t *testing.T) {
	tests := []struct {
		name      string
		ocr, user string
		matched   bool
		conf      int
		note      string
	}{
		{"exact", "JUAN DELA CRUZ", "Juan  Dela Cruz", true, 100, "Exact match"},
		{"accents", "MARIA PEÑA", "Maria Pena", true, 100, "Exact match"},
		{"punctuation", "DELA CRUZ, JUAN", "dela cruz juan", true, 100, "Exact match"},
		{"middle initial", "JUAN S. CRUZ", "Juan Cruz", true, 95, "Match without middle initial"},
		{"nickname", "MICHAEL SANTOS", "MIKE SANTOS", true, 90, "Match with nickname/initial variations"},
		{"nickname reversed", "BOB REYES", "ROBERT REYES", true, 90, "Match with nickname/initial variations"},
		{"initial", "J CRUZ", "JUAN CRUZ", true, 90, "Match with nickname/initial variations"},
		{"subset", "JUAN CRUZ JR", "JUAN CRUZ", true, 85, "All name components match"},
		{"digit substitution", "BOB", "808", true, 85, "Match after OCR error correction"},
		{"transposed L and I", "MALIA SANTOS", "MAILA SANTOS", false, 0, ""},
		{"transposed I and L", "GIL REYES", "GLI REYES", false, 0, ""},
		{"L read as I", "LIZA CRUZ", "IIZA CRUZ", false, 0, ""},
		{"different", "PEDRO PENDUKO", "JUAN CRUZ", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareNames(tt.ocr, tt.user)
			if got.Matched != tt.matched || got.Confidence != tt.conf {
				t.Fatalf("CompareNames(%q, %q) = %v/%d (%s), want %v/%d", tt.ocr, tt.user, got.Matched, got.Confidence, got.Note, tt.matched, tt.conf)
			}
			if tt.note != "" && got.Note != tt.note {
				t.Errorf("note = %q, want %q", got.Note, tt.note)
			}
			if got.Similarity == nil {
				t.Error("similarity not set")
			}
		})
	}
}

func TestCompareNames_ExactScoresFull(t *testing.T) {
	got := CompareNames("Ana Reyes", "ANA REYES")
	if got.Similarity == nil || *got.Similarity != 100 {
		t.Errorf("similarity = %v, want 100", got.Similarity)
	}
}

func TestCompareNames_LowOverlapNeedsScore(t *testing.T) {
	// Every user token appears in the OCR name, but the composite score is
	// too low for the subset rule.
	got := CompareNames("JUAN DELA CRUZ", "JUAN CRUZ")
	if got.Matched {
		t.Fatalf("expected no match, got %+v", got)
	}
	if !strings.HasPrefix(got.Note, "Names differ significantly (") {
		t.Errorf("note = %q", got.Note)
	}
	if got.Suggestion != "Please verify the name on your ID" {
		t.Errorf("suggestion = %q", got.Suggestion)
	}
	if *got.Similarity >= subsetMinScore {
		t.Errorf("similarity = %.1f, want below %d", *got.Similarity, subsetMinScore)
	}
}

func TestCompareNames_DigitSuggestion(t *testing.T) {
	got := CompareNames("Gio", "610")
	want := "OCR may have misread: GIO -> 610"
	if got.Suggestion != want {
		t.Errorf("suggestion = %q, want %q", got.Suggestion, want)
	}
}

func TestCompareNames_Empty(t *testing.T) {
	got := CompareNames("", "JUAN CRUZ")
	if got.Matched {
		t.Error("empty OCR name matched")
	}
	if *got.Similarity != 0 {
		t.Errorf("similarity = %v, want 0", *got.Similarity)
	}
}

func TestComposite_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"JUAN DELA CRUZ", "JUAN DELA CRUZ"},
		{"A", "B"},
		{"A", "A"},
		{"JUAN", ""},
		{"MARIA CLARA", "CLARA MARIA"},
		{"X", "XXXXXXXXXXXXXXXXXXXXXXXX"},
	}
	for _, p := range pairs {
		s := Composite(p[0], p[1])
		if s < 0 || s > 100 || math.IsNaN(s) {
			t.Errorf("Composite(%q, %q) = %v, out of range", p[0], p[1], s)
		}
	}
	if s := Composite("JUAN DELA CRUZ", "JUAN DELA CRUZ"); math.Abs(s-100) > 1e-9 {
		t.Errorf("identical names scored %v", s)
	}
}

func TestComposite_MoreSharedTokensScoresHigher(t *testing.T) {
	base := Composite("JUAN CRUZ SANTOS", "PEDRO REYES SANTOS")
	more := Composite("JUAN CRUZ SANTOS", "PEDRO CRUZ SANTOS")
	if more < base {
		t.Errorf("sharing another token lowered the score: %.2f < %.2f", more, base)
	}
}

func TestComposite_WordOrder(t *testing.T) {
	if s := Composite("MARIA CLARA", "CLARA MARIA"); s < 50 {
		t.Errorf("reordered name scored %.1f", s)
	}
}

func TestCorrectOCRDigits(t *testing.T) {
	tests := map[string]string{
		"AB1Z3456": "A8123456",
		"ab1z3456": "A8123456",
		"OLIS":     "0115",
		"12345678": "12345678",
		"":         "",
	}
	for in, want := range tests {
		if got := CorrectOCRDigits(in); got != want {
			t.Errorf("CorrectOCRDigits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Sto. Niño-Cruz, Jr. "); got != "STO NINO CRUZ JR" {
		t.Errorf("NormalizeName = %q", got)
	}
}
