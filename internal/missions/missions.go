// Package missions awards badges for recordings whose characteristic
// time series satisfies a fixed rule set.
package missions

import (
	"math"

	"github.com/linuxmatters/goodvibrations/internal/spectral"
)

// RuleID identifies a mission rule.
type RuleID string

// Mission identifiers, one per badge.
const (
	RuleSteady       RuleID = "steady"        // long, even tone with low variance
	RulePatterned    RuleID = "patterned"     // repeating peaks, rhythm or tapping
	RuleQuiet        RuleID = "quiet"         // hushed scene, low mean level
	RuleLoud         RuleID = "loud"          // at least one very loud moment
	RuleLowDominant  RuleID = "low_dominant"  // energy concentrated in the low band
	RuleHighDominant RuleID = "high_dominant" // energy concentrated in the high band
)

// ClassifyOrder defines the fixed priority for awarding badges.
// Classification walks this list and awards the first match only, so the
// order is contractual: the temporal rules shadow the broad level rules,
// quiet shadows loud, and band dominance matches only when nothing else
// does. Changing the order changes which badge a recording earns.
var ClassifyOrder = []RuleID{
	RuleSteady,
	RulePatterned,
	RuleQuiet,
	RuleLoud,
	RuleLowDominant,
	RuleHighDominant,
}

// Rule thresholds. Magnitudes are on the 0..255 spectrum scale; sample
// counts are characteristic ticks (4 per second).
const (
	// quietMeanMax is the mean overall level below which a take is quiet.
	quietMeanMax = 60.0

	// loudPeakMin is the overall level one sample must exceed for loud.
	loudPeakMin = 210.0

	// steadyMinSamples is the shortest sequence steady considers (~3s).
	steadyMinSamples = 12

	// steadyMeanFloor keeps silence from counting as a steady tone.
	steadyMeanFloor = 25.0

	// steadyVarianceMax bounds the overall-level variance of a steady tone.
	steadyVarianceMax = 90.0

	// patternedMinSamples is the shortest sequence patterned considers (~4s).
	patternedMinSamples = 16

	// patternedMinPeaks is how many distinct hits make a rhythm.
	patternedMinPeaks = 3

	// patternedPeakFactor is how far above the sequence mean a sample must
	// rise to count as a hit.
	patternedPeakFactor = 1.2

	// dominantMeanMin is the band mean required before dominance applies.
	dominantMeanMin = 80.0

	// dominantRatio is how far one band must exceed its opposite.
	dominantRatio = 1.5
)

// Rule is one mission: a badge identity plus the predicate that awards it.
type Rule struct {
	ID   RuleID
	Name string
	Hint string

	match func([]spectral.CharacteristicSample) bool
}

// rules maps RuleID to its definition. The map centralises the rule set;
// ClassifyOrder decides precedence.
var rules = map[RuleID]Rule{
	RuleSteady: {
		ID:    RuleSteady,
		Name:  "Hold It Steady",
		Hint:  "Record a few seconds of one continuous, even sound.",
		match: matchSteady,
	},
	RulePatterned: {
		ID:    RulePatterned,
		Name:  "Drum It In",
		Hint:  "Tap out a rhythm with clearly separated hits.",
		match: matchPatterned,
	},
	RuleQuiet: {
		ID:    RuleQuiet,
		Name:  "Pin Drop",
		Hint:  "Capture a hushed scene without going fully silent.",
		match: matchQuiet,
	},
	RuleLoud: {
		ID:    RuleLoud,
		Name:  "Full Throttle",
		Hint:  "Catch something properly loud, just short of clipping.",
		match: matchLoud,
	},
	RuleLowDominant: {
		ID:    RuleLowDominant,
		Name:  "Down Low",
		Hint:  "Find a deep rumble like an engine or distant thunder.",
		match: matchLowDominant,
	},
	RuleHighDominant: {
		ID:    RuleHighDominant,
		Name:  "Up Top",
		Hint:  "Chase bright sounds like birdsong or jangling keys.",
		match: matchHighDominant,
	},
}

// Classify awards at most one new badge for the characteristics of a
// finished recording. Rules already in completed are skipped; the first
// remaining rule whose predicate holds over the full sequence wins. The
// ok result is false when the sequence is empty or nothing matched.
func Classify(samples []spectral.CharacteristicSample, completed map[RuleID]bool) (Rule, bool) {
	if len(samples) == 0 {
		return Rule{}, false
	}
	for _, id := range ClassifyOrder {
		if completed[id] {
			continue
		}
		rule := rules[id]
		if rule.match(samples) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Guide returns every mission in award-priority order, for display.
func Guide() []Rule {
	guide := make([]Rule, 0, len(ClassifyOrder))
	for _, id := range ClassifyOrder {
		guide = append(guide, rules[id])
	}
	return guide
}

// Lookup returns the rule for an identifier, for rendering stored badges.
func Lookup(id RuleID) (Rule, bool) {
	rule, ok := rules[id]
	return rule, ok
}

func matchQuiet(samples []spectral.CharacteristicSample) bool {
	mean, _ := overallStats(samples)
	return mean < quietMeanMax
}

func matchLoud(samples []spectral.CharacteristicSample) bool {
	for _, s := range samples {
		if s.Overall > loudPeakMin {
			return true
		}
	}
	return false
}

func matchSteady(samples []spectral.CharacteristicSample) bool {
	if len(samples) < steadyMinSamples {
		return false
	}
	mean, variance := overallStats(samples)
	return mean > steadyMeanFloor && variance < steadyVarianceMax
}

// matchPatterned counts strict local maxima of the overall level that rise
// above the sequence mean by patternedPeakFactor. Endpoints cannot be
// maxima, they have only one neighbour.
func matchPatterned(samples []spectral.CharacteristicSample) bool {
	if len(samples) < patternedMinSamples {
		return false
	}
	mean, _ := overallStats(samples)
	threshold := mean * patternedPeakFactor

	peaks := 0
	for i := 1; i < len(samples)-1; i++ {
		v := samples[i].Overall
		if v > samples[i-1].Overall && v > samples[i+1].Overall && v > threshold {
			peaks++
		}
	}
	return peaks >= patternedMinPeaks
}

func matchLowDominant(samples []spectral.CharacteristicSample) bool {
	low := meanOf(samples, func(s spectral.CharacteristicSample) float64 { return s.LowAvg })
	high := meanOf(samples, func(s spectral.CharacteristicSample) float64 { return s.HighAvg })
	return low > dominantMeanMin && low > high*dominantRatio
}

func matchHighDominant(samples []spectral.CharacteristicSample) bool {
	low := meanOf(samples, func(s spectral.CharacteristicSample) float64 { return s.LowAvg })
	high := meanOf(samples, func(s spectral.CharacteristicSample) float64 { return s.HighAvg })
	return high > dominantMeanMin && high > low*dominantRatio
}

// overallStats returns the mean and population variance of the overall
// level across the sequence.
func overallStats(samples []spectral.CharacteristicSample) (mean, variance float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	for _, s := range samples {
		mean += s.Overall
	}
	mean /= float64(len(samples))

	for _, s := range samples {
		variance += math.Pow(s.Overall-mean, 2)
	}
	variance /= float64(len(samples))
	return mean, variance
}

func meanOf(samples []spectral.CharacteristicSample, pick func(spectral.CharacteristicSample) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += pick(s)
	}
	return sum / float64(len(samples))
}
