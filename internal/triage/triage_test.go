package triage

import (
	"testing"

	"github.com/mnemolab/mnemo/internal/memory"
)

func TestSuggest_Credentials(t *testing.T) {
	c := New()

	tests := []string{
		"my wifi password is hunter2",
		"the API key for the staging account",
		"rotate the access token monthly",
	}
	for _, text := range tests {
		got := c.Suggest(text)
		if got.Level != memory.SensitivitySecret {
			t.Errorf("Suggest(%q).Level = %s, want secret", text, got.Level)
		}
		if got.Confidence == 0 {
			t.Errorf("Suggest(%q).Confidence = 0, want > 0", text)
		}
	}
}

func TestSuggest_CardNumber(t *testing.T) {
	got := New().Suggest("card on file: 4111 1111 1111 1111")
	if got.Level != memory.SensitivitySecret {
		t.Errorf("Level = %s, want secret", got.Level)
	}
}

func TestSuggest_SSN(t *testing.T) {
	got := New().Suggest("her number is 123-45-6789")
	if got.Level != memory.SensitivitySecret {
		t.Errorf("Level = %s, want secret", got.Level)
	}
}

func TestSuggest_PersonalSignals(t *testing.T) {
	c := New()

	tests := []string{
		"started a new medication last week",
		"salary negotiation is next month",
		"reach me at sam@example.com",
		"lives at 42 Maple Street",
	}
	for _, text := range tests {
		got := c.Suggest(text)
		if got.Level != memory.SensitivityPersonal {
			t.Errorf("Suggest(%q).Level = %s, want personal", text, got.Level)
		}
		if len(got.Matched) == 0 {
			t.Errorf("Suggest(%q) matched no signals", text)
		}
	}
}

func TestSuggest_QuietTextDefaultsPersonal(t *testing.T) {
	got := New().Suggest("prefers tea over coffee in the morning")
	if got.Level != memory.SensitivityPersonal {
		t.Errorf("Level = %s, want personal", got.Level)
	}
	if len(got.Matched) != 0 {
		t.Errorf("Matched = %v, want none", got.Matched)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", got.Confidence)
	}
}

func TestSuggest_EmptyText(t *testing.T) {
	got := New().Suggest("   ")
	if got.Level != memory.SensitivityPersonal || len(got.Matched) != 0 {
		t.Errorf("empty input should be a quiet personal suggestion, got %+v", got)
	}
}

func TestSuggest_SecretBeatsPersonal(t *testing.T) {
	// Both a contact signal and a credential signal fire; the stricter
	// tier wins.
	got := New().Suggest("email sam@example.com the database password")
	if got.Level != memory.SensitivitySecret {
		t.Errorf("Level = %s, want secret", got.Level)
	}
	if len(got.Matched) < 2 {
		t.Errorf("Matched = %v, want both signals", got.Matched)
	}
	if got.Confidence >= 100 {
		t.Errorf("Confidence = %d, want < 100 with a dissenting signal", got.Confidence)
	}
}

func TestNuggetTier(t *testing.T) {
	tests := []struct {
		in   memory.Sensitivity
		want memory.NuggetSensitivity
	}{
		{memory.SensitivitySecret, memory.NuggetHigh},
		{memory.SensitivityPublic, memory.NuggetLow},
		{memory.SensitivityPersonal, memory.NuggetMedium},
	}
	for _, tt := range tests {
		if got := NuggetTier(tt.in); got != tt.want {
			t.Errorf("NuggetTier(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
