// Package threat scores inbound requests against injection signatures and
// behavioural heuristics. Each matched signal contributes a fixed weight and
// the total is capped, giving a 0..MaxScore risk score.
package threat

import (
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"golang.org/x/text/unicode/norm"
)

const (
	FlagSuspiciousUserAgent = "suspicious_user_agent"
	FlagMalformedForwarding = "malformed_forwarding_header"
	FlagHighFrequency       = "high_request_frequency"

	endpointFlagPrefix = "endpoint_"
)

// Weights is the score contributed by each kind of signal.
type Weights struct {
	Body      int `toml:"body"`
	Endpoint  int `toml:"endpoint"`
	UserAgent int `toml:"user_agent"`
	Header    int `toml:"header"`
	Frequency int `toml:"frequency"`
}

type Config struct {
	Weights         Weights
	MaxScore        int
	BlockThreshold  int
	FrequencyWindow time.Duration
	FrequencyLimit  int
	MaxForwardHops  int
	BotSignatures   []string
}

func DefaultConfig() Config {
	return Config{
		Weights:         Weights{Body: 20, Endpoint: 10, UserAgent: 15, Header: 5, Frequency: 25},
		MaxScore:        100,
		BlockThreshold:  80,
		FrequencyWindow: 60 * time.Second,
		FrequencyLimit:  100,
		MaxForwardHops:  3,
		BotSignatures:   DefaultBotSignatures,
	}
}

// RequestCounter reports how many earlier requests a source made since a
// point in time. The request being scored is not yet counted.
type RequestCounter interface {
	CountSince(source string, since time.Time) int
}

type Request struct {
	SourceAddr string
	UserAgent  string
	Method     string
	Endpoint   string
	Headers    http.Header
	Body       string
}

type Assessment struct {
	Suspicious bool     `json:"suspicious"`
	Flags      []string `json:"flags"`
	RiskScore  int      `json:"risk_score"`
	// Block is set when RiskScore reaches the configured threshold.
	Block bool `json:"block"`
}

type Detector struct {
	cfg      Config
	patterns []Pattern
	counter  RequestCounter
}

// NewDetector builds a detector over DefaultPatterns. counter may be nil, in
// which case the frequency heuristic is skipped.
func NewDetector(cfg Config, counter RequestCounter) *Detector {
	def := DefaultConfig()
	if cfg.MaxScore <= 0 {
		cfg.MaxScore = def.MaxScore
	}
	if cfg.BlockThreshold <= 0 {
		cfg.BlockThreshold = def.BlockThreshold
	}
	if cfg.FrequencyWindow <= 0 {
		cfg.FrequencyWindow = def.FrequencyWindow
	}
	if cfg.FrequencyLimit <= 0 {
		cfg.FrequencyLimit = def.FrequencyLimit
	}
	if cfg.MaxForwardHops <= 0 {
		cfg.MaxForwardHops = def.MaxForwardHops
	}
	if cfg.BotSignatures == nil {
		cfg.BotSignatures = def.BotSignatures
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	return &Detector{cfg: cfg, patterns: DefaultPatterns, counter: counter}
}

func (d *Detector) Config() Config { return d.cfg }

// Score evaluates req at now. It never mutates state.
func (d *Detector) Score(req Request, now time.Time) Assessment {
	var (
		flags []string
		score int
	)
	add := func(flag string, weight int) {
		flags = append(flags, flag)
		score += weight
	}

	for _, c := range d.match(req.Body) {
		add(string(c), d.cfg.Weights.Body)
	}
	for _, c := range d.match(req.Endpoint) {
		add(endpointFlagPrefix+string(c), d.cfg.Weights.Endpoint)
	}

	if d.isAutomatedAgent(req.UserAgent) {
		add(FlagSuspiciousUserAgent, d.cfg.Weights.UserAgent)
	}

	if d.hasMalformedForwarding(req.Headers) {
		add(FlagMalformedForwarding, d.cfg.Weights.Header)
	}

	if d.counter != nil && req.SourceAddr != "" {
		since := now.Add(-d.cfg.FrequencyWindow)
		if d.counter.CountSince(req.SourceAddr, since)+1 > d.cfg.FrequencyLimit {
			add(FlagHighFrequency, d.cfg.Weights.Frequency)
		}
	}

	if score > d.cfg.MaxScore {
		score = d.cfg.MaxScore
	}

	return Assessment{
		Suspicious: len(flags) > 0,
		Flags:      flags,
		RiskScore:  score,
		Block:      score >= d.cfg.BlockThreshold,
	}
}

// match returns each category with at least one matching pattern, in table order.
func (d *Detector) match(input string) []Category {
	if input == "" {
		return nil
	}
	s := normalize(input)

	var (
		out  []Category
		seen = make(map[Category]bool)
	)
	for _, p := range d.patterns {
		if seen[p.Category] {
			continue
		}
		if p.Regexp.MatchString(s) {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

func (d *Detector) isAutomatedAgent(ua string) bool {
	if ua == "" {
		return false
	}
	lower := strings.ToLower(ua)
	for _, sig := range d.cfg.BotSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return useragent.New(ua).Bot()
}

func (d *Detector) hasMalformedForwarding(h http.Header) bool {
	if h == nil {
		return false
	}

	if v := h.Get("X-Real-IP"); v != "" && net.ParseIP(strings.TrimSpace(v)) == nil {
		return true
	}

	values := h.Values("X-Forwarded-For")
	if len(values) == 0 {
		return false
	}
	hops := 0
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			hops++
			if net.ParseIP(strings.TrimSpace(part)) == nil {
				return true
			}
		}
	}
	return hops > d.cfg.MaxForwardHops
}

var percentEscape = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// normalize undoes up to two layers of percent-encoding and folds Unicode
// compatibility forms so fullwidth or encoded payloads match plain signatures.
// Escapes are decoded one by one; malformed ones are kept verbatim.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	for i := 0; i < 2; i++ {
		decoded := percentEscape.ReplaceAllStringFunc(s, func(esc string) string {
			b, _ := strconv.ParseUint(esc[1:], 16, 8)
			return string([]byte{byte(b)})
		})
		if decoded == s {
			break
		}
		s = decoded
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return norm.NFKC.String(s)
}
