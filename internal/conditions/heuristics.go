package conditions

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// velocityTracker keeps a bounded per-user timestamp ring covering the
// message-velocity window.
type velocityTracker struct {
	mu     sync.Mutex
	window time.Duration
	rings  map[string][]time.Time
}

const velocityRingCap = 64

func newVelocityTracker(window time.Duration) *velocityTracker {
	return &velocityTracker{
		window: window,
		rings:  make(map[string][]time.Time),
	}
}

func (v *velocityTracker) record(userID string, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ring := append(v.rings[userID], now)
	cutoff := now.Add(-v.window)
	trimmed := ring[:0]
	for _, t := range ring {
		if t.After(cutoff) {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) > velocityRingCap {
		trimmed = trimmed[len(trimmed)-velocityRingCap:]
	}
	v.rings[userID] = trimmed
}

func (v *velocityTracker) count(userID string, now time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := now.Add(-v.window)
	n := 0
	for _, t := range v.rings[userID] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// sentimentTracker holds a fixed-size sliding window of per-message
// sentiment scores for the trend heuristic.
type sentimentTracker struct {
	mu      sync.Mutex
	size    int
	windows map[string][]float64
}

func newSentimentTracker(size int) *sentimentTracker {
	return &sentimentTracker{
		size:    size,
		windows: make(map[string][]float64),
	}
}

func (s *sentimentTracker) record(userID string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.windows[userID], score)
	if len(window) > s.size {
		window = window[len(window)-s.size:]
	}
	s.windows[userID] = window
}

func (s *sentimentTracker) stats(userID string) (mean, variance float64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.windows[userID]
	n = len(window)
	if n == 0 {
		return 0, 0, 0
	}
	for _, v := range window {
		mean += v
	}
	mean /= float64(n)
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	return mean, variance, n
}

// recentTracker keeps the last few raw messages per user for duplicate and
// link-burst checks.
type recentTracker struct {
	mu       sync.Mutex
	size     int
	messages map[string][]string
}

func newRecentTracker(size int) *recentTracker {
	return &recentTracker{
		size:     size,
		messages: make(map[string][]string),
	}
}

func (r *recentTracker) record(userID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := append(r.messages[userID], content)
	if len(msgs) > r.size {
		msgs = msgs[len(msgs)-r.size:]
	}
	r.messages[userID] = msgs
}

func (r *recentTracker) snapshot(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.messages[userID]))
	copy(out, r.messages[userID])
	return out
}

// checkSpam is fully local: message velocity inside the window plus exact
// duplicate bursts.
func (e *Evaluator) checkSpam(_ context.Context, userID, content string, cond models.WatchCondition) models.ConditionResult {
	threshold := int(cond.Threshold)
	if threshold <= 0 {
		threshold = 10
	}

	now := time.Now()
	count := e.velocity.count(userID, now)
	if count >= threshold {
		return models.ConditionResult{
			Triggered:  true,
			Evidence:   fmt.Sprintf("%d messages in %s", count, e.velocity.window),
			Confidence: 0.9,
		}
	}

	duplicates := 0
	for _, msg := range e.recent.snapshot(userID) {
		if msg == content {
			duplicates++
		}
	}
	if duplicates >= 3 {
		return models.ConditionResult{
			Triggered:  true,
			Evidence:   fmt.Sprintf("message repeated %d times", duplicates),
			Confidence: 0.85,
		}
	}
	return models.ConditionResult{}
}

// checkLinkSpam counts URLs across the recent window.
func (e *Evaluator) checkLinkSpam(_ context.Context, userID, content string, cond models.WatchCondition) models.ConditionResult {
	threshold := int(cond.Threshold)
	if threshold <= 0 {
		threshold = 3
	}

	links := countLinks(content)
	for _, msg := range e.recent.snapshot(userID) {
		if msg == content {
			continue
		}
		links += countLinks(msg)
	}

	if links >= threshold {
		return models.ConditionResult{
			Triggered:  true,
			Evidence:   fmt.Sprintf("%d links in recent messages", links),
			Confidence: 0.8,
		}
	}
	return models.ConditionResult{}
}

// checkKeyword is the deterministic keyword/pattern match, also used as the
// safe fallback for classifier-backed types.
func (e *Evaluator) checkKeyword(_ context.Context, _ string, content string, cond models.WatchCondition) models.ConditionResult {
	lowered := strings.ToLower(content)
	for _, kw := range cond.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return models.ConditionResult{
				Triggered:  true,
				Evidence:   fmt.Sprintf("matched keyword %q", kw),
				Confidence: 0.6,
			}
		}
	}
	return models.ConditionResult{}
}

// checkSentimentTrend triggers on a sustained negative mean over the sliding
// window. A high variance means mixed messages, not a trend; those do not
// trigger.
func (e *Evaluator) checkSentimentTrend(_ context.Context, userID, _ string, cond models.WatchCondition) models.ConditionResult {
	threshold := cond.Threshold
	if threshold <= 0 {
		threshold = 0.4
	}

	mean, variance, n := e.sentiment.stats(userID)
	if n < 3 {
		return models.ConditionResult{}
	}
	if mean <= -threshold && variance < 0.5 {
		return models.ConditionResult{
			Triggered:  true,
			Evidence:   fmt.Sprintf("sentiment mean %.2f over %d messages", mean, n),
			Confidence: math.Min(1, -mean),
		}
	}
	return models.ConditionResult{}
}

func countLinks(content string) int {
	return strings.Count(content, "http://") + strings.Count(content, "https://")
}

// scoreSentiment is a deliberately small lexicon heuristic: it only needs to
// be stable and deterministic, the classifier owns nuance.
func scoreSentiment(content string) float64 {
	lowered := strings.ToLower(content)

	score := 0.0
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			score += 0.5
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			score -= 0.5
		}
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

var positiveWords = []string{"thanks", "thank you", "great", "awesome", "love", "nice", "helpful", "glad"}

var negativeWords = []string{"hate", "stupid", "idiot", "trash", "garbage", "shut up", "kill", "worst", "awful"}
