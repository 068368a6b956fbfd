package logging

import (
	"strings"
	"testing"

	"github.com/linuxmatters/goodvibrations/internal/mains"
)

func tipIDs(tips []RecordingTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func TestGenerateRecordingTips(t *testing.T) {
	hum50 := mains.Hum{Hz: 50}

	tests := []struct {
		name  string
		stats SessionStats
		want  []string
	}{
		{
			name:  "no_data_no_tips",
			stats: SessionStats{},
			want:  nil,
		},
		{
			name: "good_session_no_tips",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 110, PeakLevel: 0.7, VarOverall: 200,
				MeanLow: 60, MeanMid: 80, MeanHigh: 50,
			},
			want: nil,
		},
		{
			name: "clipping_fires",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 150, PeakLevel: 1.0, ClipTicks: 3,
				MeanLow: 80, MeanMid: 100, MeanHigh: 70,
			},
			want: []string{"level_clipping"},
		},
		{
			name: "clipping_suppresses_quiet_advice",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 40, PeakLevel: 1.0, ClipTicks: 1,
				MeanLow: 20, MeanMid: 30, MeanHigh: 15,
			},
			want: []string{"level_clipping"},
		},
		{
			name: "near_ceiling_without_clipping",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 150, PeakLevel: 0.97,
				MeanLow: 80, MeanMid: 100, MeanHigh: 70,
			},
			want: []string{"level_near_clipping"},
		},
		{
			name: "too_quiet",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 20, PeakLevel: 0.2,
				MeanLow: 10, MeanMid: 15, MeanHigh: 8,
			},
			want: []string{"level_too_quiet"},
		},
		{
			name: "moderately_quiet",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 45, PeakLevel: 0.4,
				MeanLow: 25, MeanMid: 35, MeanHigh: 20,
			},
			want: []string{"level_quiet"},
		},
		{
			name: "hum_signature",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 70, PeakLevel: 0.6,
				MeanLow: 120, MeanMid: 40, MeanHigh: 30,
			},
			want: []string{"mains_hum"},
		},
		{
			name: "harsh_highs",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 80, PeakLevel: 0.6,
				MeanLow: 30, MeanMid: 40, MeanHigh: 120,
			},
			want: []string{"harsh_highs"},
		},
		{
			name: "wide_swings",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 110, PeakLevel: 0.8, VarOverall: 3000,
				MeanLow: 60, MeanMid: 80, MeanHigh: 50,
			},
			want: []string{"wide_swings"},
		},
		{
			name: "priority_order",
			stats: SessionStats{
				Ticks: 40, MeanOverall: 90, PeakLevel: 1.0, ClipTicks: 2,
				VarOverall: 3000, MeanLow: 120, MeanMid: 40, MeanHigh: 30,
			},
			want: []string{"level_clipping", "mains_hum", "wide_swings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := GenerateRecordingTips(tt.stats, hum50)
			got := tipIDs(tips)
			if len(got) != len(tt.want) {
				t.Fatalf("fired rules %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("fired rules %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTipMainsHumNamesGridFrequency(t *testing.T) {
	stats := SessionStats{
		Ticks: 40, MeanOverall: 70, PeakLevel: 0.6,
		MeanLow: 120, MeanMid: 40, MeanHigh: 30,
	}

	tips := GenerateRecordingTips(stats, mains.Hum{Hz: 60, Country: "Canada"})
	if len(tips) != 1 {
		t.Fatalf("got %d tips, want 1", len(tips))
	}
	if !strings.Contains(tips[0].Message, "60Hz") {
		t.Errorf("hum tip does not name the grid frequency: %q", tips[0].Message)
	}
}

func TestTipClippingCountsSingular(t *testing.T) {
	stats := SessionStats{Ticks: 40, MeanOverall: 150, PeakLevel: 1.0, ClipTicks: 1,
		MeanLow: 80, MeanMid: 100, MeanHigh: 70}

	tips := GenerateRecordingTips(stats, mains.Hum{Hz: 50})
	if len(tips) != 1 {
		t.Fatalf("got %d tips, want 1", len(tips))
	}
	if !strings.Contains(tips[0].Message, "clipped once") {
		t.Errorf("single clip message reads %q", tips[0].Message)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{"short_stays_whole", "fits on one line", 40, "  ", "fits on one line"},
		{"wraps_at_word_boundary", "one two three four", 9, "  ", "one two\n  three\n  four"},
		{"empty", "", 10, "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}
