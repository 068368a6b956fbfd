package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/goodvibrations/internal/missions"
	"github.com/linuxmatters/goodvibrations/internal/spectral"
)

// Spinner frames for the save screen
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Eight-step bar runes for the spectrum and waveform sparklines
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// renderLiveView renders the monitoring and recording screen
func renderLiveView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderStatusLine(m))
	b.WriteString("\n\n")

	b.WriteString(renderMeterBox(m))
	b.WriteString("\n")

	b.WriteString(renderSpectrumBox(m))
	b.WriteString("\n\n")

	b.WriteString(renderKeyHelp(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Goodvibrations 🌊 - Terminal Field Recorder")

	device := m.deviceName
	if device == "" {
		device = "default input"
	}
	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%s | %d Hz | %dHz mains region", device, m.chain.SampleRate(), m.hum.Hz))

	return title + "\n" + subtitle
}

// renderStatusLine renders the transport state and take clock
func renderStatusLine(m Model) string {
	if m.status == StatusRecording {
		icon := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000")).Render("● REC")
		clock := fmt.Sprintf(" %s", formatElapsed(time.Since(m.recordStart)))
		if m.maxDuration > 0 {
			clock += fmt.Sprintf(" / %s", formatElapsed(m.maxDuration))
		}
		return icon + clock + renderBadgeCount(m)
	}

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○ monitoring")
	return icon + renderBadgeCount(m)
}

// renderBadgeCount renders the earned badge tally
func renderBadgeCount(m Model) string {
	total := len(missions.Guide())
	if total == 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(fmt.Sprintf("   🏅 %d/%d", len(m.completed), total))
}

// renderMeterBox renders the level meter with the held peak marker
func renderMeterBox(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#A40000")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	category := m.level.Category()
	label := category.String()
	if category == spectral.CategoryClipping {
		label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000")).Render("CLIP!")
	}

	content.WriteString(fmt.Sprintf("Level %s %s\n", renderLevelBar(m.level.AverageLevel, m.level.PeakLevel, 40), label))
	content.WriteString(fmt.Sprintf("Gain  %s %.0f/100", renderGainBar(m.chain.GainControl(), 40), m.chain.GainControl()))

	return box.Render(content.String())
}

// renderLevelBar renders a meter bar with a peak-hold marker
func renderLevelBar(level, peak float64, width int) string {
	bar := make([]rune, width)
	filled := clampIndex(int(level*float64(width)), width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}

	if peak > 0 {
		bar[clampIndex(int(peak*float64(width)), width-1)] = '┃'
	}

	return string(bar)
}

// renderGainBar renders the 0-100 gain control position
func renderGainBar(gain float64, width int) string {
	filled := clampIndex(int(gain/100*float64(width)), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderSpectrumBox renders the spectrum sparkline and band meters
func renderSpectrumBox(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	content.WriteString(renderSpectrum(m.spectrum, 16))
	content.WriteString("\n\n")

	dominant := m.bands.Dominant()
	content.WriteString(renderBandRow("Low", m.bands.Low, dominant == spectral.BandLow))
	content.WriteString("\n")
	content.WriteString(renderBandRow("Mid", m.bands.Mid, dominant == spectral.BandMid))
	content.WriteString("\n")
	content.WriteString(renderBandRow("High", m.bands.High, dominant == spectral.BandHigh))

	return box.Render(content.String())
}

// renderSpectrum averages the spectrum into buckets and renders each
// bucket two cells wide.
func renderSpectrum(spec spectral.Spectrum, buckets int) string {
	if len(spec) == 0 || buckets <= 0 {
		return ""
	}

	avg := make([]float64, buckets)
	per := len(spec) / buckets
	if per < 1 {
		per = 1
	}
	for i := range avg {
		start := i * per
		if start >= len(spec) {
			break
		}
		end := start + per
		if end > len(spec) {
			end = len(spec)
		}
		sum := 0.0
		for _, v := range spec[start:end] {
			sum += v
		}
		avg[i] = sum / float64(end-start)
	}

	var b strings.Builder
	for _, r := range sparkline(avg, spectral.MaxMagnitude) {
		b.WriteRune(r)
		b.WriteRune(r)
	}
	return b.String()
}

// renderBandRow renders one band meter with the dominant marker
func renderBandRow(name string, energy float64, dominant bool) string {
	filled := clampIndex(int(energy/spectral.MaxMagnitude*30), 30)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 30-filled)

	marker := "  "
	if dominant {
		marker = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render(" ◀")
	}

	return fmt.Sprintf("%-4s %s %3.0f%s", name, bar, energy, marker)
}

// renderKeyHelp renders the key bindings footer
func renderKeyHelp(m Model) string {
	action := "start take"
	if m.status == StatusRecording {
		action = "stop take"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(fmt.Sprintf("r %s | ↑/↓ gain | q quit", action))
}

// renderSaving renders the export-in-flight screen
func renderSaving(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	spinner := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A40000")).
		Render(spinnerFrames[m.spinnerIndex])
	b.WriteString(fmt.Sprintf("%s Saving take...", spinner))

	return b.String()
}

// renderSummary renders the finished-take screen
func renderSummary(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✓ Take saved")
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.saved != nil {
		b.WriteString(renderTakeSummary(m, *m.saved))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("r record another | q quit"))

	return b.String()
}

// renderTakeSummary renders the facts of one saved take
func renderTakeSummary(m Model, saved RecordingSavedMsg) string {
	var b strings.Builder

	rec := saved.Outcome.Recording
	b.WriteString(fmt.Sprintf("Duration: %s | %d Hz | %s\n", formatElapsed(rec.Duration), rec.SampleRate, rec.Codec))

	if saved.Files.WavPath != "" {
		b.WriteString(fmt.Sprintf("WAV:      %s\n", saved.Files.WavPath))
	}
	if saved.Files.ReportPath != "" {
		b.WriteString(fmt.Sprintf("Report:   %s\n", saved.Files.ReportPath))
	}

	if len(rec.Waveform) > 0 {
		b.WriteString("\n")
		b.WriteString(sparkline(rec.Waveform, 1.0))
		b.WriteString("\n")
	}

	if saved.Outcome.ClipTicks > 0 {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).
			Render(fmt.Sprintf("⚠ clipping flagged on %d ticks", saved.Outcome.ClipTicks))
		b.WriteString(warn)
		b.WriteString("\n")
	}

	if m.streamErr != nil {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).
			Render(fmt.Sprintf("⚠ stream ended early: %v", m.streamErr))
		b.WriteString(warn)
		b.WriteString("\n")
	}

	if badge := saved.Outcome.Badge; badge != nil {
		banner := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500")).
			Render(fmt.Sprintf("🏅 Badge earned: %s", badge.Name))
		b.WriteString("\n")
		b.WriteString(banner)
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true).
			Render(badge.Hint))
		b.WriteString("\n")
	}

	return b.String()
}

// renderError renders the fatal error screen
func renderError(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
	b.WriteString(fmt.Sprintf("%s Error: %v\n\n", icon, m.err))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("q quit"))

	return b.String()
}

// sparkline maps values on a 0..scale range onto eight-step bar runes
func sparkline(values []float64, scale float64) string {
	if scale <= 0 {
		return ""
	}

	runes := make([]rune, len(values))
	for i, v := range values {
		idx := clampIndex(int(v/scale*float64(len(sparkRunes))), len(sparkRunes)-1)
		runes[i] = sparkRunes[idx]
	}
	return string(runes)
}

// clampIndex clamps n into [0, max]
func clampIndex(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
