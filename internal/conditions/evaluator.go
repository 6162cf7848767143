// Package conditions decides whether one piece of user content trips a watch
// condition. Classifier-backed types degrade to local heuristics on failure;
// a condition check never returns an error and never crashes the pipeline.
package conditions

import (
	"context"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/classifier"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

type handlerFunc func(ctx context.Context, userID, content string, cond models.WatchCondition) models.ConditionResult

// Evaluator maps each condition type to its handler. The registry is built
// once at construction; unknown types were already rejected at watch
// creation, hitting one here is a programming error and resolves to a
// non-trigger.
type Evaluator struct {
	cls      classifier.Classifier
	timeout  time.Duration
	handlers map[models.ConditionType]handlerFunc

	velocity  *velocityTracker
	sentiment *sentimentTracker
	recent    *recentTracker
}

func NewEvaluator(cls classifier.Classifier, timeout time.Duration) *Evaluator {
	e := &Evaluator{
		cls:       cls,
		timeout:   timeout,
		velocity:  newVelocityTracker(60 * time.Second),
		sentiment: newSentimentTracker(10),
		recent:    newRecentTracker(8),
	}
	e.handlers = map[models.ConditionType]handlerFunc{
		models.ConditionToxicity:       e.checkClassified,
		models.ConditionThreat:         e.checkClassified,
		models.ConditionImpersonation:  e.checkClassified,
		models.ConditionSpam:           e.checkSpam,
		models.ConditionLinkSpam:       e.checkLinkSpam,
		models.ConditionKeyword:        e.checkKeyword,
		models.ConditionSentimentTrend: e.checkSentimentTrend,
	}
	return e
}

// Observe feeds one event into the local heuristic state. Call it once per
// behavioral event, before any Check for that event.
func (e *Evaluator) Observe(userID, content string, now time.Time) {
	e.velocity.record(userID, now)
	e.sentiment.record(userID, scoreSentiment(content))
	e.recent.record(userID, content)
}

// RecentMessageCount reports the user's message count inside the velocity
// window. Used as the message_count runtime value for action conditions.
func (e *Evaluator) RecentMessageCount(userID string) int {
	return e.velocity.count(userID, time.Now())
}

// Check evaluates one condition for one user/content pair.
func (e *Evaluator) Check(ctx context.Context, userID, content string, cond models.WatchCondition) models.ConditionResult {
	metrics.Global().ConditionsChecked.Add(1)

	handler, ok := e.handlers[cond.Type]
	if !ok {
		logging.Warn("no handler for condition type %q", cond.Type)
		return models.ConditionResult{}
	}
	return handler(ctx, userID, content, cond)
}

// checkClassified delegates to the external classifier and falls back to the
// keyword heuristic when the call fails or times out.
func (e *Evaluator) checkClassified(ctx context.Context, userID, content string, cond models.WatchCondition) models.ConditionResult {
	if e.cls != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		verdict, err := e.cls.Classify(callCtx, content, cond.Type)
		cancel()

		if err == nil {
			threshold := cond.Threshold
			if threshold <= 0 {
				threshold = 0.7
			}
			triggered := verdict.Verdict && verdict.Confidence >= threshold
			return models.ConditionResult{
				Triggered:  triggered,
				Evidence:   verdict.Evidence,
				Confidence: verdict.Confidence,
			}
		}
		logging.Warn("classifier failed for %s/%s, using fallback: %v", userID, cond.Type, err)
	}

	if len(cond.Keywords) > 0 {
		return e.checkKeyword(ctx, userID, content, cond)
	}
	return models.ConditionResult{}
}
