package classify

import (
	"context"
	"strings"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
)

// RuleTier is the cheap deterministic first stage.
type RuleTier interface {
	Classify(text string) (Category, bool)
}

// SemanticTier is the nearest-neighbor second stage.
type SemanticTier interface {
	Classify(ctx context.Context, text string) (Category, float64, error)
}

// GenerativeTier is the costly model-backed stage used for legacy sources.
type GenerativeTier interface {
	Classify(ctx context.Context, text string) (Category, error)
}

// Cascade routes each record through the tiers and stops at the first one
// that accepts. Legacy sources skip straight to the generative tier: their
// text is known to defeat the rule and semantic stages, so the upfront cost
// is accepted. For everything else the semantic tier is terminal — per-line
// generative calls stay bounded to the legacy set.
type Cascade struct {
	rules      RuleTier
	semantic   SemanticTier
	generative GenerativeTier
	legacy     map[string]bool
}

// NewCascade builds a cascade. legacySources names the origin identifiers
// (matched case-insensitively) routed directly to the generative tier.
func NewCascade(rules RuleTier, semantic SemanticTier, generative GenerativeTier, legacySources []string) *Cascade {
	legacy := make(map[string]bool, len(legacySources))
	for _, s := range legacySources {
		if s = strings.TrimSpace(s); s != "" {
			legacy[strings.ToLower(s)] = true
		}
	}
	return &Cascade{rules: rules, semantic: semantic, generative: generative, legacy: legacy}
}

// IsLegacy reports whether records from source bypass the cheap tiers.
func (c *Cascade) IsLegacy(source string) bool {
	return c.legacy[strings.ToLower(source)]
}

// Classify assigns exactly one category and tier to the record. External
// failures (embedding or completion endpoint) propagate as errors; they are
// never folded into a default category. The caller owns retry policy and
// may re-run the record on a later cycle.
func (c *Cascade) Classify(ctx context.Context, rec collector.Record) (ClassifiedLog, error) {
	text := strings.TrimSpace(rec.Message)

	// A blank line carries nothing to classify; the rule tier decides
	// Unclassified deterministically rather than wasting an escalation.
	if text == "" {
		return ClassifiedLog{Record: rec, Category: Unclassified, Tier: TierRule, Confidence: 1}, nil
	}

	if c.IsLegacy(rec.Source) {
		cat, err := c.generative.Classify(ctx, text)
		if err != nil {
			return ClassifiedLog{}, err
		}
		return ClassifiedLog{Record: rec, Category: cat, Tier: TierGenerative}, nil
	}

	if cat, ok := c.rules.Classify(text); ok {
		return ClassifiedLog{Record: rec, Category: cat, Tier: TierRule, Confidence: 1}, nil
	}

	cat, confidence, err := c.semantic.Classify(ctx, text)
	if err != nil {
		return ClassifiedLog{}, err
	}
	return ClassifiedLog{Record: rec, Category: cat, Tier: TierSemantic, Confidence: confidence}, nil
}

// ClassifyAll classifies records in arrival order. The first external
// failure aborts the pass so the cycle can be retried as a whole.
func (c *Cascade) ClassifyAll(ctx context.Context, records []collector.Record) ([]ClassifiedLog, error) {
	classified := make([]ClassifiedLog, 0, len(records))
	for _, rec := range records {
		cl, err := c.Classify(ctx, rec)
		if err != nil {
			return nil, err
		}
		classified = append(classified, cl)
	}
	return classified, nil
}
