package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/goodvibrations/internal/mains"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from session measurements.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// GenerateRecordingTips analyses session statistics and returns
// prioritised recording improvement suggestions.
func GenerateRecordingTips(stats SessionStats, hum mains.Hum) []RecordingTip {
	if stats.Ticks == 0 {
		return nil
	}

	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(SessionStats, mains.Hum) *RecordingTip{
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipMainsHum,
		tipHarshHighs,
		tipWideSwings,
	}

	for _, rule := range rules {
		if tip := rule(stats, hum); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, firedRules)

	// Sort by priority (descending)
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	// Cap at maximum
	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific
// tip has already fired. Quiet-level advice is suppressed when the take
// also clipped; one loud spike in a quiet take reads as a gain problem
// at the hot end, not the quiet end.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet", "level_quiet":
			if fired["level_clipping"] || fired["level_near_clipping"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipLevelTooHot fires when the take clipped or came close.
// Clip ticks come straight from the level monitor; the near-clipping
// fallback uses the session peak (linear, 0-1).
func tipLevelTooHot(stats SessionStats, _ mains.Hum) *RecordingTip {
	if stats.ClipTicks > 0 {
		times := fmt.Sprintf("%d times", stats.ClipTicks)
		if stats.ClipTicks == 1 {
			times = "once"
		}
		return &RecordingTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  fmt.Sprintf("Your take clipped %s - turn the gain down a few steps to stop the distortion.", times),
		}
	}
	if stats.PeakLevel > 0.95 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "level_near_clipping",
			Message:  "Your loudest moment nearly hit the ceiling - back the gain off a step or two to give yourself some headroom.",
		}
	}
	return nil
}

// tipLevelTooQuiet fires when the session average sat under 30 on the
// 0-255 display scale, which is close to indistinguishable from room
// tone.
func tipLevelTooQuiet(stats SessionStats, _ mains.Hum) *RecordingTip {
	if stats.MeanOverall >= 30 {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  "Most of the take sat barely above the noise floor - move closer to the source or push the gain up well before the next run.",
	}
}

// tipLevelQuiet fires when the session average landed between 30 and 60
// on the display scale, workable but thin.
func tipLevelQuiet(stats SessionStats, _ mains.Hum) *RecordingTip {
	if stats.MeanOverall < 30 || stats.MeanOverall >= 60 {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "level_quiet",
		Message:  "The take is a bit quiet - a few steps more gain would put it comfortably in front of the noise.",
	}
}

// tipMainsHum fires when the low band towers over the rest for the
// whole session, the signature of grid hum pickup. The message names
// the locally inferred grid frequency.
func tipMainsHum(stats SessionStats, hum mains.Hum) *RecordingTip {
	if !humSuspected(stats) {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message:  fmt.Sprintf("The low band held a constant floor through the whole take - that pattern usually means %dHz mains hum. Check for power supplies, monitors, or chargers near the microphone.", hum.Hz),
	}
}

// tipHarshHighs fires when the top band carried most of the energy,
// which for most sources means hiss or harshness rather than content.
func tipHarshHighs(stats SessionStats, _ mains.Hum) *RecordingTip {
	if stats.MeanHigh < 90 || stats.MeanHigh < stats.MeanMid*1.5 || stats.MeanHigh < stats.MeanLow*1.5 {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "harsh_highs",
		Message:  "The top of the spectrum carried most of the energy. If that is hiss rather than the source, lower the gain and move closer; if it is harshness, angle the microphone slightly off-axis.",
	}
}

// tipWideSwings fires when the overall level variance is very large,
// indicating inconsistent source distance or handling noise.
func tipWideSwings(stats SessionStats, _ mains.Hum) *RecordingTip {
	if stats.VarOverall <= 2500 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "wide_swings",
		Message:  "Levels swung hard across the take. Keep a steadier distance from the source and avoid handling the microphone mid-recording.",
	}
}
