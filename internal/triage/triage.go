// Package triage suggests a sensitivity tier for text before it is
// stored. It runs a fixed set of weighted pattern signals over the
// input and picks the strictest tier any signal fires for. The result
// is a suggestion only: callers can always override it.
package triage

import (
	"regexp"
	"strings"

	"github.com/mnemolab/mnemo/internal/memory"
)

// Signal is one detection axis. A signal that matches votes for its
// tier with its weight.
type Signal struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Weight is the signal's relative importance (1-10).
	Weight int                `json:"weight"`
	Level  memory.Sensitivity `json:"level"`

	pattern *regexp.Regexp
}

// DefaultSignals returns the standard detection signals. Secret signals
// cover credentials and high-risk identifiers; personal signals cover
// contact details, health, and finances.
func DefaultSignals() []Signal {
	return []Signal{
		{
			Name:        "credential",
			Description: "Passwords, API keys, tokens, and other secrets",
			Weight:      10,
			Level:       memory.SensitivitySecret,
			pattern:     regexp.MustCompile(`(?i)\b(password|passphrase|api[_ -]?key|secret[_ -]?key|access[_ -]?token|private[_ -]?key|credentials?)\b`),
		},
		{
			Name:        "card_number",
			Description: "Payment card numbers",
			Weight:      10,
			Level:       memory.SensitivitySecret,
			pattern:     regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
		},
		{
			Name:        "national_id",
			Description: "Government identifiers such as SSNs",
			Weight:      9,
			Level:       memory.SensitivitySecret,
			pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b|(?i)\b(ssn|social security|passport number)\b`),
		},
		{
			Name:        "health",
			Description: "Medical conditions, diagnoses, medication",
			Weight:      7,
			Level:       memory.SensitivityPersonal,
			pattern:     regexp.MustCompile(`(?i)\b(diagnos\w*|medication|prescri\w+|allerg\w+|therapy|surgery|illness)\b`),
		},
		{
			Name:        "finance",
			Description: "Salaries, debts, account balances",
			Weight:      7,
			Level:       memory.SensitivityPersonal,
			pattern:     regexp.MustCompile(`(?i)\b(salary|income|debt|mortgage|bank account|iban|balance)\b`),
		},
		{
			Name:        "contact",
			Description: "Email addresses and phone numbers",
			Weight:      5,
			Level:       memory.SensitivityPersonal,
			pattern:     regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}|\+?\d[\d ()-]{7,}\d`),
		},
		{
			Name:        "home_address",
			Description: "Street addresses and home locations",
			Weight:      5,
			Level:       memory.SensitivityPersonal,
			pattern:     regexp.MustCompile(`(?i)\b(home address|lives at|\d+\s+\w+\s+(street|st|avenue|ave|road|rd|lane|ln|drive|dr))\b`),
		},
	}
}

// Suggestion is the outcome of classifying one piece of text.
type Suggestion struct {
	Level memory.Sensitivity `json:"level"`
	// Matched lists the names of the signals that fired, strongest
	// first.
	Matched []string `json:"matched,omitempty"`
	// Confidence is the weight of the winning tier's signals over the
	// total weight of all fired signals, 0-100. A quiet input scores 0.
	Confidence int `json:"confidence"`
}

// Classifier owns a signal set. The zero value is not usable; call New.
type Classifier struct {
	signals []Signal
}

// New builds a classifier over the default signals.
func New() *Classifier {
	return &Classifier{signals: DefaultSignals()}
}

// Suggest classifies text. With no signal fired the suggestion is the
// personal tier at zero confidence, the safe default for an assistant's
// memory.
func (c *Classifier) Suggest(text string) Suggestion {
	text = strings.TrimSpace(text)
	if text == "" {
		return Suggestion{Level: memory.SensitivityPersonal}
	}

	level := memory.SensitivityPersonal
	var matched []string
	totalWeight := 0
	levelWeight := map[memory.Sensitivity]int{}

	for _, s := range c.signals {
		if !s.pattern.MatchString(text) {
			continue
		}
		matched = append(matched, s.Name)
		totalWeight += s.Weight
		levelWeight[s.Level] += s.Weight
		if stricter(s.Level, level) {
			level = s.Level
		}
	}

	confidence := 0
	if totalWeight > 0 {
		confidence = levelWeight[level] * 100 / totalWeight
	}
	return Suggestion{Level: level, Matched: matched, Confidence: confidence}
}

// NuggetTier maps a sensitivity suggestion onto the nugget low/medium/
// high scale. Secret maps to high, public to low, personal to medium.
func NuggetTier(level memory.Sensitivity) memory.NuggetSensitivity {
	switch level {
	case memory.SensitivitySecret:
		return memory.NuggetHigh
	case memory.SensitivityPublic:
		return memory.NuggetLow
	default:
		return memory.NuggetMedium
	}
}

// stricter reports whether a outranks b on the disclosure scale.
func stricter(a, b memory.Sensitivity) bool {
	return rank(a) > rank(b)
}

func rank(s memory.Sensitivity) int {
	switch s {
	case memory.SensitivitySecret:
		return 2
	case memory.SensitivityPersonal:
		return 1
	default:
		return 0
	}
}
