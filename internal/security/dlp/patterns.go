package dlp

import (
	"math"
	"net"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// Pattern is one row of the detection table. Validate, when set, discards
// matches that fail a structural check. Bonus adds pattern-specific confidence.
type Pattern struct {
	Name        string
	Category    Category
	Severity    Severity
	Method      RedactionMethod
	Sensitivity int
	Regexp      *regexp.Regexp
	Validate    func(string) bool
	Bonus       func(string) float64
}

const entropyThreshold = 4.2

// DefaultPatterns is the built-in detection table.
var DefaultPatterns = []Pattern{
	{
		Name:        "credit_card",
		Category:    CategoryFinancial,
		Severity:    SeverityCritical,
		Method:      Mask,
		Sensitivity: 10,
		Regexp:      regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
		Bonus: func(v string) float64 {
			if luhnValid(v) {
				return 0.3
			}
			return 0
		},
	},
	{
		Name:        "ssn",
		Category:    CategoryGovernmentID,
		Severity:    SeverityCritical,
		Method:      Hash,
		Sensitivity: 10,
		Regexp:      regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Validate:    validSSN,
	},
	{
		Name:        "aws_access_key",
		Category:    CategoryCredential,
		Severity:    SeverityCritical,
		Method:      Remove,
		Sensitivity: 10,
		Regexp:      regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
		Bonus:       constBonus(0.3),
	},
	{
		Name:        "api_key",
		Category:    CategoryCredential,
		Severity:    SeverityCritical,
		Method:      Remove,
		Sensitivity: 10,
		Regexp: regexp.MustCompile(`\b(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{16,}\b` +
			`|\bgh[pousr]_[A-Za-z0-9]{36,}\b` +
			`|\bxox[abpr]-[A-Za-z0-9-]{10,}\b` +
			`|(?i:\b(?:api[_-]?key|access[_-]?token|auth[_-]?token|secret[_-]?key)["']?\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,})`),
		Bonus: constBonus(0.2),
	},
	{
		Name:        "password_assignment",
		Category:    CategoryCredential,
		Severity:    SeverityCritical,
		Method:      Remove,
		Sensitivity: 10,
		Regexp:      regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)["']?\s*[:=]\s*\S+`),
	},
	{
		Name:        "high_entropy_secret",
		Category:    CategoryCredential,
		Severity:    SeverityCritical,
		Method:      Remove,
		Sensitivity: 9,
		Regexp:      regexp.MustCompile(`[A-Za-z0-9+/_\-]{32,}={0,2}`),
		Validate:    looksLikeSecret,
	},
	{
		Name:        "bank_account",
		Category:    CategoryFinancial,
		Severity:    SeverityHigh,
		Method:      Encrypt,
		Sensitivity: 9,
		Regexp:      regexp.MustCompile(`\b\d{8,17}\b`),
	},
	{
		Name:        "medical_record",
		Category:    CategoryMedical,
		Severity:    SeverityHigh,
		Method:      Encrypt,
		Sensitivity: 9,
		Regexp:      regexp.MustCompile(`(?i)\b(?:MRN|medical\s+record(?:\s+(?:number|no\.?))?)\s*[:#]?\s*[A-Z0-9-]{6,12}\b`),
	},
	{
		Name:        "drivers_license",
		Category:    CategoryGovernmentID,
		Severity:    SeverityHigh,
		Method:      Encrypt,
		Sensitivity: 8,
		Regexp:      regexp.MustCompile(`\b[A-Z]{1,2}\d{6,8}\b`),
	},
	{
		Name:        "email",
		Category:    CategoryContact,
		Severity:    SeverityMedium,
		Method:      Mask,
		Sensitivity: 5,
		Regexp:      regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Bonus: func(v string) float64 {
			if _, err := mail.ParseAddress(v); err == nil {
				return 0.2
			}
			return 0
		},
	},
	{
		Name:        "phone",
		Category:    CategoryContact,
		Severity:    SeverityMedium,
		Method:      Mask,
		Sensitivity: 5,
		Regexp:      regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?(?:\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`),
	},
	{
		Name:        "ip_address",
		Category:    CategoryNetwork,
		Severity:    SeverityLow,
		Method:      Mask,
		Sensitivity: 3,
		Regexp:      regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		Validate: func(v string) bool {
			ip := net.ParseIP(v)
			return ip != nil && ip.To4() != nil
		},
	},
}

func constBonus(b float64) func(string) float64 {
	return func(string) float64 { return b }
}

// luhnValid runs the Luhn checksum over the digits of v.
func luhnValid(v string) bool {
	var (
		sum    int
		double bool
		n      int
	)
	for i := len(v) - 1; i >= 0; i-- {
		c := v[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
		n++
	}
	return n >= 13 && sum%10 == 0
}

func validSSN(v string) bool {
	area, group, serial := v[0:3], v[4:6], v[7:11]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

// looksLikeSecret accepts mixed letter/digit tokens whose Shannon entropy is
// above entropyThreshold.
func looksLikeSecret(v string) bool {
	var letters, digits bool
	for _, r := range v {
		switch {
		case unicode.IsLetter(r):
			letters = true
		case unicode.IsDigit(r):
			digits = true
		}
	}
	if !letters || !digits {
		return false
	}
	return shannonEntropy(strings.TrimRight(v, "=")) >= entropyThreshold
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}
	var (
		entropy float64
		length  = float64(len(s))
	)
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
