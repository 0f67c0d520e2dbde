package intent

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

// #region errors

// ErrClassification marks an external classification failure. The classifier
// never surfaces it to callers; it fails closed to Clarify instead.
var ErrClassification = errors.New("classification failure")

// #endregion errors

// #region judge

// Judge is the external LLM collaborator contract for intent classification.
// Implementations must constrain output to the closed intent set.
type Judge interface {
	ClassifyIntent(ctx context.Context, utterance string, stage protocol.Stage, language string) (Intent, float32, error)
}

// #endregion judge

// #region classifier

// Classifier maps one utterance to one intent: deterministic pattern rules
// first, then the LLM judge, failing closed to Clarify when the judge is
// unavailable, errors, or returns a value outside the intent set.
type Classifier struct {
	judge Judge // nil = rules only, model layer disabled
}

// NewClassifier creates a classifier. judge may be nil.
func NewClassifier(judge Judge) *Classifier {
	return &Classifier{judge: judge}
}

// #endregion classifier

// #region classify

// Classify runs the two-layer classification for one utterance.
func (c *Classifier) Classify(ctx context.Context, utterance string, stage protocol.Stage, language string) Result {
	// Layer 1: deterministic rules, high confidence, no external call.
	if rule, ok := MatchRules(utterance, stage); ok {
		return Result{
			Intent:     rule.Intent,
			Confidence: 1.0,
			Source:     SourceRule,
			RuleName:   rule.Name,
		}
	}

	// Empty or whitespace-only input never reaches the model.
	if strings.TrimSpace(utterance) == "" {
		return Result{Intent: Clarify, Confidence: 1.0, Source: SourceFailsafe}
	}

	// Layer 2: LLM fallback with a constrained output contract.
	if c.judge != nil {
		it, conf, err := c.judge.ClassifyIntent(ctx, utterance, stage, language)
		if err == nil && Valid(it) {
			return Result{Intent: it, Confidence: conf, Source: SourceModel}
		}
		if err != nil {
			log.Printf("[INTENT] judge failed, failing closed to clarify: %v", err)
		} else {
			log.Printf("[INTENT] judge returned invalid intent %q, failing closed", it)
		}
	}

	// Fail closed: never silently advance on classifier failure.
	return Result{Intent: Clarify, Confidence: 0, Source: SourceFailsafe}
}

// #endregion classify

// #region marker-parse

// ParseMarker infers an intent from free text via textual markers. Used as
// a best-effort recovery when the model ignores the structured contract and
// returns prose instead of an enum value.
func ParseMarker(text string) (Intent, bool) {
	lower := strings.ToLower(text)
	for _, it := range All {
		if strings.Contains(lower, string(it)) {
			return it, true
		}
	}
	// Common unprefixed spellings.
	aliases := map[string]Intent{
		"consent yes": ConsentYes,
		"consent no":  ConsentNo,
		"answer ok":   AnswerOk,
		"partial":     AnswerPartial,
		"off track":   Offtrack,
		"off-track":   Offtrack,
		"meta":        MetaDiscussion,
	}
	for marker, it := range aliases {
		if strings.Contains(lower, marker) {
			return it, true
		}
	}
	return "", false
}

// #endregion marker-parse
