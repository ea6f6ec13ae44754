package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/familiarcat/aegis/internal/security/dlp"
	"github.com/familiarcat/aegis/internal/security/threat"
)

var ErrInvalidPolicy = errors.New("invalid_policy")

// Policy holds the tunable detection policy. Values start from the built-in
// defaults and the environment, then a TOML file may override any of them.
//
//	[threat]
//	block_threshold = 70
//	frequency_window = "30s"
//
//	[threat.weights]
//	body = 25
//
//	[dlp]
//	disabled = ["ip_address"]
//
//	[dlp.methods]
//	email = "hash"
type Policy struct {
	Threat ThreatPolicy `toml:"threat"`
	DLP    DLPPolicy    `toml:"dlp"`
}

type ThreatPolicy struct {
	Weights         threat.Weights `toml:"weights"`
	MaxScore        int            `toml:"max_score"`
	BlockThreshold  int            `toml:"block_threshold"`
	FrequencyWindow time.Duration  `toml:"frequency_window"`
	FrequencyLimit  int            `toml:"frequency_limit"`
	MaxForwardHops  int            `toml:"max_forward_hops"`
	BotSignatures   []string       `toml:"bot_signatures"`
}

type DLPPolicy struct {
	Disabled   []string                       `toml:"disabled"`
	Methods    map[string]dlp.RedactionMethod `toml:"methods"`
	Thresholds dlp.Thresholds                 `toml:"thresholds"`
}

// DefaultPolicy returns the built-in policy with the block threshold taken
// from cfg.
func DefaultPolicy(cfg Config) Policy {
	tc := threat.DefaultConfig()
	if cfg.ThreatBlockThreshold > 0 {
		tc.BlockThreshold = cfg.ThreatBlockThreshold
	}

	return Policy{
		Threat: ThreatPolicy{
			Weights:         tc.Weights,
			MaxScore:        tc.MaxScore,
			BlockThreshold:  tc.BlockThreshold,
			FrequencyWindow: tc.FrequencyWindow,
			FrequencyLimit:  tc.FrequencyLimit,
			MaxForwardHops:  tc.MaxForwardHops,
			BotSignatures:   tc.BotSignatures,
		},
		DLP: DLPPolicy{
			Thresholds: dlp.DefaultThresholds(),
		},
	}
}

// LoadPolicy returns DefaultPolicy(cfg) overlaid with cfg.PolicyFile, when
// one is configured. Unknown keys are rejected.
func LoadPolicy(cfg Config) (Policy, error) {
	p := DefaultPolicy(cfg)
	if cfg.PolicyFile == "" {
		return p, p.Validate()
	}

	md, err := toml.DecodeFile(cfg.PolicyFile, &p)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to decode policy file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Policy{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidPolicy, strings.Join(keys, ", "))
	}

	return p, p.Validate()
}

func (p Policy) Validate() error {
	w := p.Threat.Weights
	if w.Body < 0 || w.Endpoint < 0 || w.UserAgent < 0 || w.Header < 0 || w.Frequency < 0 {
		return fmt.Errorf("%w: threat weights must not be negative", ErrInvalidPolicy)
	}
	if p.Threat.MaxScore <= 0 {
		return fmt.Errorf("%w: threat max_score must be positive", ErrInvalidPolicy)
	}
	if p.Threat.BlockThreshold <= 0 || p.Threat.BlockThreshold > p.Threat.MaxScore {
		return fmt.Errorf("%w: threat block_threshold must be in 1..%d", ErrInvalidPolicy, p.Threat.MaxScore)
	}
	if p.Threat.FrequencyWindow <= 0 || p.Threat.FrequencyLimit <= 0 {
		return fmt.Errorf("%w: threat frequency window and limit must be positive", ErrInvalidPolicy)
	}

	t := p.DLP.Thresholds
	if t.Internal <= 0 || t.Internal > t.Confidential || t.Confidential > t.Secret {
		return fmt.Errorf("%w: dlp thresholds must satisfy 0 < internal <= confidential <= secret", ErrInvalidPolicy)
	}
	return nil
}

func (p Policy) ThreatConfig() threat.Config {
	return threat.Config{
		Weights:         p.Threat.Weights,
		MaxScore:        p.Threat.MaxScore,
		BlockThreshold:  p.Threat.BlockThreshold,
		FrequencyWindow: p.Threat.FrequencyWindow,
		FrequencyLimit:  p.Threat.FrequencyLimit,
		MaxForwardHops:  p.Threat.MaxForwardHops,
		BotSignatures:   p.Threat.BotSignatures,
	}
}

func (p Policy) DLPConfig() dlp.Config {
	return dlp.Config{
		Disabled:   p.DLP.Disabled,
		Methods:    p.DLP.Methods,
		Thresholds: p.DLP.Thresholds,
	}
}
