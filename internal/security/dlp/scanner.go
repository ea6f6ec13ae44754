// Package dlp discovers, classifies and redacts sensitive values in free text.
package dlp

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPattern = errors.New("dlp: unknown pattern")

const maxRiskScore = 100

// Thresholds maps the highest matched sensitivity to a classification level.
type Thresholds struct {
	Secret       int `toml:"secret"`
	Confidential int `toml:"confidential"`
	Internal     int `toml:"internal"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Secret: 8, Confidential: 6, Internal: 4}
}

type Config struct {
	// Disabled names patterns that are skipped entirely.
	Disabled []string
	// Methods overrides the redaction method of named patterns.
	Methods    map[string]RedactionMethod
	Thresholds Thresholds
}

// Scanner is immutable after construction and safe for concurrent use.
type Scanner struct {
	patterns   []Pattern
	thresholds Thresholds
}

func NewScanner(cfg Config) (*Scanner, error) {
	known := make(map[string]bool, len(DefaultPatterns))
	for _, p := range DefaultPatterns {
		known[p.Name] = true
	}

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		if !known[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
		}
		disabled[name] = true
	}
	for name := range cfg.Methods {
		if !known[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
		}
	}

	patterns := make([]Pattern, 0, len(DefaultPatterns))
	for _, p := range DefaultPatterns {
		if disabled[p.Name] {
			continue
		}
		if m, ok := cfg.Methods[p.Name]; ok {
			p.Method = m
		}
		patterns = append(patterns, p)
	}

	th := cfg.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}

	return &Scanner{patterns: patterns, thresholds: th}, nil
}

// Patterns returns the active pattern table.
func (s *Scanner) Patterns() []Pattern {
	return append([]Pattern(nil), s.patterns...)
}

// Scan reports every sensitive value in content and a redacted copy of it.
func (s *Scanner) Scan(content string) Result {
	findings := s.find(content)

	res := Result{
		HasSensitiveData: len(findings) > 0,
		Findings:         findings,
		RedactedContent:  redactAll(content, findings),
		Recommendations:  recommend(findings),
	}
	for _, f := range findings {
		res.RiskScore += f.Severity.weight()
	}
	if res.RiskScore > maxRiskScore {
		res.RiskScore = maxRiskScore
	}
	if res.Findings == nil {
		res.Findings = []Finding{}
	}
	return res
}

// Classify maps the highest sensitivity matched in content to a level and
// retention tier.
func (s *Scanner) Classify(content string) Classification {
	findings := s.find(content)

	c := Classification{Categories: []Category{}, Patterns: []string{}}
	seenCat := make(map[Category]bool)
	seenPat := make(map[string]bool)
	for _, f := range findings {
		if p := s.pattern(f.Pattern); p != nil && p.Sensitivity > c.Sensitivity {
			c.Sensitivity = p.Sensitivity
			c.Dominant = f.Category
		}
		if !seenCat[f.Category] {
			seenCat[f.Category] = true
			c.Categories = append(c.Categories, f.Category)
		}
		if !seenPat[f.Pattern] {
			seenPat[f.Pattern] = true
			c.Patterns = append(c.Patterns, f.Pattern)
		}
	}

	switch {
	case c.Sensitivity >= s.thresholds.Secret:
		c.Level, c.RetentionDays = LevelSecret, 2555
	case c.Sensitivity >= s.thresholds.Confidential:
		c.Level, c.RetentionDays = LevelConfidential, 1095
	case c.Sensitivity >= s.thresholds.Internal:
		c.Level, c.RetentionDays = LevelInternal, 730
	default:
		c.Level, c.RetentionDays = LevelPublic, 365
	}
	return c
}

func (s *Scanner) pattern(name string) *Pattern {
	for i := range s.patterns {
		if s.patterns[i].Name == name {
			return &s.patterns[i]
		}
	}
	return nil
}

// find collects candidate matches from every pattern, keeps the most severe
// of any overlapping set and returns the survivors ordered by position.
func (s *Scanner) find(content string) []Finding {
	if content == "" {
		return nil
	}

	var candidates []Finding
	for _, p := range s.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(content, -1) {
			value := content[loc[0]:loc[1]]
			if p.Validate != nil && !p.Validate(value) {
				continue
			}
			candidates = append(candidates, Finding{
				Pattern:       p.Name,
				Category:      p.Category,
				Severity:      p.Severity,
				Method:        p.Method,
				Start:         loc[0],
				End:           loc[1],
				Confidence:    confidence(p, value),
				RedactedValue: redact(p.Method, p.Name, value),
				Value:         value,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if la, lb := a.End-a.Start, b.End-b.Start; la != lb {
			return la > lb
		}
		return a.Start < b.Start
	})

	var kept []Finding
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

func confidence(p Pattern, value string) float64 {
	c := 0.5
	if len(value) >= 8 {
		c += 0.2
	}
	if len(value) >= 16 {
		c += 0.1
	}
	if p.Bonus != nil {
		c += p.Bonus(value)
	}
	if c > 1 {
		c = 1
	}
	return c
}

func redact(m RedactionMethod, pattern, value string) string {
	switch m {
	case Mask:
		r := []rune(value)
		if len(r) <= 4 {
			return strings.Repeat("*", len(r))
		}
		return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
	case Hash:
		sum := sha256.Sum256([]byte(value))
		return "[HASH:" + hex.EncodeToString(sum[:])[:16] + "]"
	case Remove:
		return "[REDACTED]"
	case Encrypt:
		return "[ENCRYPTED:" + pattern + "]"
	}
	return "[REDACTED]"
}

// redactAll rewrites findings from the end of content backwards so earlier
// offsets stay valid.
func redactAll(content string, findings []Finding) string {
	if len(findings) == 0 {
		return content
	}
	ordered := append([]Finding(nil), findings...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	out := content
	for _, f := range ordered {
		out = out[:f.Start] + f.RedactedValue + out[f.End:]
	}
	return out
}

var categoryAdvice = map[Category]string{
	CategoryCredential:   "Rotate exposed API keys and credentials and move them to a secrets manager",
	CategoryFinancial:    "Tokenize payment card and bank account numbers before storing or sharing",
	CategoryGovernmentID: "Restrict access to government identifiers and keep only hashed forms",
	CategoryMedical:      "Handle medical record identifiers under health-data access controls",
	CategoryContact:      "Minimise personal contact details and confirm a lawful basis for keeping them",
	CategoryNetwork:      "Avoid sharing internal network addresses in free text",
}

// recommend returns one piece of advice per matched category, most severe first.
func recommend(findings []Finding) []string {
	worst := make(map[Category]Severity)
	for _, f := range findings {
		if f.Severity > worst[f.Category] {
			worst[f.Category] = f.Severity
		}
	}

	cats := make([]Category, 0, len(worst))
	for c := range worst {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if worst[cats[i]] != worst[cats[j]] {
			return worst[cats[i]] > worst[cats[j]]
		}
		return cats[i] < cats[j]
	})

	out := make([]string, 0, len(cats)+1)
	for _, c := range cats {
		out = append(out, categoryAdvice[c])
	}
	if worst[CategoryCredential] == SeverityCritical || worst[CategoryFinancial] == SeverityCritical || worst[CategoryGovernmentID] == SeverityCritical {
		out = append(out, "Block this content from leaving the trust boundary until it is redacted")
	}
	return out
}
