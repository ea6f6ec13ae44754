package dlp

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// weight is the risk-score contribution of one finding.
func (s Severity) weight() int {
	switch s {
	case SeverityLow:
		return 5
	case SeverityMedium:
		return 15
	case SeverityHigh:
		return 30
	case SeverityCritical:
		return 50
	}
	return 0
}

// RedactionMethod selects how a finding is rewritten in redacted output.
type RedactionMethod int

const (
	// Mask keeps the first and last two characters of values longer than four.
	Mask RedactionMethod = iota + 1
	// Hash replaces the value with a truncated SHA-256 digest stub.
	Hash
	// Remove replaces the value with a fixed marker.
	Remove
	// Encrypt replaces the value with a placeholder naming the pattern.
	Encrypt
)

func (m RedactionMethod) String() string {
	switch m {
	case Mask:
		return "MASK"
	case Hash:
		return "HASH"
	case Remove:
		return "REMOVE"
	case Encrypt:
		return "ENCRYPT"
	}
	return fmt.Sprintf("RedactionMethod(%d)", int(m))
}

func (m RedactionMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *RedactionMethod) UnmarshalText(b []byte) error {
	parsed, err := ParseRedactionMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParseRedactionMethod(s string) (RedactionMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MASK":
		return Mask, nil
	case "HASH":
		return Hash, nil
	case "REMOVE":
		return Remove, nil
	case "ENCRYPT":
		return Encrypt, nil
	}
	return 0, fmt.Errorf("dlp: unknown redaction method %q", s)
}

type Category string

const (
	CategoryFinancial    Category = "financial"
	CategoryGovernmentID Category = "government_id"
	CategoryContact      Category = "contact"
	CategoryNetwork      Category = "network"
	CategoryCredential   Category = "credential"
	CategoryMedical      Category = "medical"
)

// Finding is one detected sensitive value. Value holds the raw match and is
// never serialised.
type Finding struct {
	Pattern       string          `json:"pattern"`
	Category      Category        `json:"category"`
	Severity      Severity        `json:"severity"`
	Method        RedactionMethod `json:"redaction_method"`
	Start         int             `json:"start"`
	End           int             `json:"end"`
	Confidence    float64         `json:"confidence"`
	RedactedValue string          `json:"redacted_value"`
	Value         string          `json:"-"`
}

type Result struct {
	HasSensitiveData bool      `json:"has_sensitive_data"`
	Findings         []Finding `json:"findings"`
	RiskScore        int       `json:"risk_score"`
	Recommendations  []string  `json:"recommendations"`
	RedactedContent  string    `json:"redacted_content"`
}

type Level string

const (
	LevelPublic       Level = "PUBLIC"
	LevelInternal     Level = "INTERNAL"
	LevelConfidential Level = "CONFIDENTIAL"
	LevelSecret       Level = "SECRET"
)

// Classification labels a content sample by its most sensitive finding.
// Dominant is that finding's category, empty for clean content.
type Classification struct {
	Level         Level      `json:"level"`
	Sensitivity   int        `json:"sensitivity"`
	RetentionDays int        `json:"retention_days"`
	Dominant      Category   `json:"dominant_category,omitempty"`
	Categories    []Category `json:"categories"`
	Patterns      []string   `json:"patterns"`
}
