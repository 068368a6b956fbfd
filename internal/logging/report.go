// Package logging handles generation of session reports for finished recordings

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/linuxmatters/goodvibrations/internal/mains"
	"github.com/linuxmatters/goodvibrations/internal/missions"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
)

// ============================================================================
// Session Interpretation Functions
// ============================================================================
// These functions turn session measurements into human-readable descriptions.
// Magnitude thresholds are on the analyzer's 0-255 display scale.

// interpretLevel describes the average signal strength over a session.
func interpretLevel(mean float64) string {
	switch {
	case mean < 20:
		return "barely above the noise floor"
	case mean < 60:
		return "quiet, room-tone territory"
	case mean < 120:
		return "comfortable with headroom to spare"
	case mean < 190:
		return "strong and present"
	default:
		return "very hot, close to the ceiling"
	}
}

// interpretPeak describes the session's loudest moment.
// Peak is linear 0-1 full scale.
func interpretPeak(peak float64) string {
	switch {
	case peak <= 0:
		return "digital silence"
	case peak < 0.5:
		return "conservative, gain to spare"
	case peak < 0.85:
		return "healthy headroom"
	case peak < 0.99:
		return "close to the ceiling"
	default:
		return "at the ceiling"
	}
}

// interpretActivity describes how much the level moved around,
// from the population variance of the overall series.
func interpretActivity(variance float64) string {
	switch {
	case variance < 25:
		return "held almost perfectly still"
	case variance < 90:
		return "steady throughout"
	case variance < 900:
		return "natural movement"
	default:
		return "large swings"
	}
}

// interpretBandBalance describes where the spectral energy sat.
func interpretBandBalance(low, mid, high float64) string {
	if low+mid+high == 0 {
		return "no signal to weigh"
	}
	switch {
	case low > mid*1.5 && low > high*1.5:
		return "bass-forward, rumble or hum territory"
	case high > mid*1.5 && high > low*1.5:
		return "bright, hiss and sibilance territory"
	case mid >= low && mid >= high:
		return "mid-forward, voice-like balance"
	default:
		return "broadly balanced"
	}
}

// humSuspected reports whether the band balance points at grid hum
// pickup: a strong low band towering over both others.
func humSuspected(s SessionStats) bool {
	return s.MeanLow > 100 && s.MeanLow > 2*s.MeanMid && s.MeanLow > 2*s.MeanHigh
}

// writeSection writes a section title with an underline.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to write a session report
type ReportData struct {
	Device     string // input device name, empty for the system default
	SampleRate int
	Codec      transcode.Codec
	StartTime  time.Time
	Duration   time.Duration
	Waveform   []float64 // normalized 0-1 thumbnail peaks, may be empty
	Stats      SessionStats
	Hum        mains.Hum
	Badge      *missions.Rule // nil when no badge was earned
	ExportPath string         // empty when the recording was not exported
}

// WriteReport renders the session report.
//
// Report structure:
// 1. Header - session info and timestamp
// 2. Levels - average, peak, movement, clipping
// 3. Band Balance - three-column table with interpretation and hum note
// 4. Mission - badge outcome
// 5. Export - where the WAV went
// 6. Tips - prioritised recording advice
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeLevelsSection(w, data.Stats)
	writeBandSection(w, data)
	writeMissionSection(w, data.Badge)
	writeExportSection(w, data.ExportPath)
	writeTipsSection(w, data.Stats, data.Hum)
}

// SaveReport writes the session report to path.
func SaveReport(path string, data ReportData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return nil
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Goodvibrations Session Report")
	fmt.Fprintln(w, "=============================")
	device := data.Device
	if device == "" {
		device = "system default input"
	}
	fmt.Fprintf(w, "Recorded: %s\n", data.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Device:   %s\n", device)
	fmt.Fprintf(w, "Format:   %d Hz mono, %s\n", data.SampleRate, data.Codec)
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(data.Duration))
	if len(data.Waveform) > 0 {
		fmt.Fprintf(w, "Waveform: %s\n", waveformLine(data.Waveform))
	}
	fmt.Fprintln(w, "")
}

// waveformLine renders normalized thumbnail peaks, one rune per bucket.
func waveformLine(peaks []float64) string {
	ramp := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, p := range peaks {
		idx := int(p * float64(len(ramp)))
		if idx >= len(ramp) {
			idx = len(ramp) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(ramp[idx])
	}
	return b.String()
}

func writeLevelsSection(w io.Writer, stats SessionStats) {
	writeSection(w, "Levels")

	fmt.Fprintf(w, "Average:  %s / 255 (%s)\n",
		formatMetric(stats.MeanOverall, 1), interpretLevel(stats.MeanOverall))
	fmt.Fprintf(w, "Peak:     %s dBFS (%s)\n",
		formatMetricPeak(stats.PeakLevel, 1), interpretPeak(stats.PeakLevel))
	fmt.Fprintf(w, "Movement: %s\n", interpretActivity(stats.VarOverall))

	switch stats.ClipTicks {
	case 0:
		fmt.Fprintln(w, "Clipping: none")
	case 1:
		fmt.Fprintln(w, "Clipping: 1 tick flagged")
	default:
		fmt.Fprintf(w, "Clipping: %d ticks flagged\n", stats.ClipTicks)
	}
	fmt.Fprintln(w, "")
}

func writeBandSection(w io.Writer, data ReportData) {
	writeSection(w, "Band Balance")

	stats := data.Stats
	table := NewBandTable()
	table.AddMetricRow("Average", stats.MeanLow, stats.MeanMid, stats.MeanHigh, 1, "", "")
	table.AddRow("Led", []string{
		fmt.Sprintf("%d", stats.DominantLow),
		fmt.Sprintf("%d", stats.DominantMid),
		fmt.Sprintf("%d", stats.DominantHigh),
	}, "ticks", "")
	fmt.Fprint(w, table.String())

	fmt.Fprintf(w, "Balance:  %s\n", interpretBandBalance(stats.MeanLow, stats.MeanMid, stats.MeanHigh))

	grid := fmt.Sprintf("%dHz grid", data.Hum.Hz)
	if data.Hum.Country != "" {
		grid += fmt.Sprintf(" (%s)", data.Hum.Country)
	}
	if humSuspected(stats) {
		fmt.Fprintf(w, "Mains:    %s, the steady low-band floor suggests hum pickup\n", grid)
	} else {
		fmt.Fprintf(w, "Mains:    %s, low band clean\n", grid)
	}
	fmt.Fprintln(w, "")
}

func writeMissionSection(w io.Writer, badge *missions.Rule) {
	writeSection(w, "Mission")

	if badge != nil {
		fmt.Fprintf(w, "Badge earned: %s\n", badge.Name)
	} else {
		fmt.Fprintln(w, "No badge this time.")
	}
	fmt.Fprintln(w, "")
}

func writeExportSection(w io.Writer, path string) {
	if path == "" {
		return
	}
	writeSection(w, "Export")
	fmt.Fprintf(w, "WAV: %s\n", path)
	fmt.Fprintln(w, "")
}

func writeTipsSection(w io.Writer, stats SessionStats, hum mains.Hum) {
	tips := GenerateRecordingTips(stats, hum)
	if len(tips) == 0 {
		return
	}

	writeSection(w, "Tips")
	for _, tip := range tips {
		fmt.Fprintf(w, "* %s\n", wrapText(tip.Message, 68, "  "))
	}
	fmt.Fprintln(w, "")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
