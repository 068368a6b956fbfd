package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/linuxmatters/goodvibrations/internal/capture"
	"github.com/linuxmatters/goodvibrations/internal/cli"
	"github.com/linuxmatters/goodvibrations/internal/logging"
	"github.com/linuxmatters/goodvibrations/internal/mains"
	"github.com/linuxmatters/goodvibrations/internal/missions"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
	"github.com/linuxmatters/goodvibrations/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool `short:"v" help:"Show version information"`

	Record    RecordCmd    `cmd:"" default:"withargs" help:"Monitor the input live and record takes (default)"`
	Transcode TranscodeCmd `cmd:"" help:"Convert recorded takes to mono 16-bit WAV"`
	Devices   DevicesCmd   `cmd:"" help:"List audio input devices"`
	Missions  MissionsCmd  `cmd:"" help:"Show the sound mission badge guide"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("goodvibrations"),
		kong.Description("Terminal field recorder with sound missions"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if err := ctx.Run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// RecordCmd runs the live record screen.
type RecordCmd struct {
	Device      string        `short:"d" env:"GOODVIBRATIONS_DEVICE" help:"Input device index or name prefix (default: system input)"`
	Rate        int           `help:"Capture sample rate in Hz" default:"48000"`
	Gain        float64       `short:"g" help:"Initial gain control, 0-100" default:"50"`
	MaxDuration time.Duration `help:"Auto-stop takes after this long, 0 to disable" default:"30s"`
	Output      string        `short:"o" type:"existingdir" env:"GOODVIBRATIONS_OUTPUT" help:"Directory for saved takes" default:"."`
	Logs        bool          `help:"Save a session report beside each take"`
}

func (r *RecordCmd) Run() error {
	if r.Gain < 0 || r.Gain > capture.GainControlMax {
		return fmt.Errorf("gain %.0f out of range, want 0-%.0f", r.Gain, capture.GainControlMax)
	}

	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio host init: %w", err)
	}
	defer capture.Shutdown()

	chain, err := capture.Acquire(capture.ChainConfig{
		Device:      r.Device,
		SampleRate:  r.Rate,
		GainControl: r.Gain,
	})
	if err != nil {
		return err
	}
	defer chain.Close()

	hum := mains.Detect()

	model := ui.NewModel(ui.Config{
		Chain:       chain,
		Hum:         hum,
		MaxDuration: r.MaxDuration,
		Saver:       newSaver(r.Output, r.Logs, r.Device, hum),
		Device:      r.Device,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}

// newSaver persists finished takes: the canonical WAV export plus the
// optional session report.
func newSaver(outDir string, logs bool, device string, hum mains.Hum) ui.Saver {
	return func(o ui.Outcome) (ui.SavedFiles, error) {
		rec := o.Recording

		wav, err := transcode.ToWav(rec.Container)
		if err != nil {
			return ui.SavedFiles{}, fmt.Errorf("convert %s take: %w", rec.Codec, err)
		}

		base := "take-" + rec.StartTime.Format("20060102-150405")
		files := ui.SavedFiles{WavPath: takePath(outDir, base)}
		if err := writeWav(files.WavPath, wav); err != nil {
			return ui.SavedFiles{}, err
		}

		if logs {
			stats := logging.ComputeStats(rec.Characteristics)
			stats.ClipTicks = o.ClipTicks
			stats.PeakLevel = o.PeakLevel

			files.ReportPath = strings.TrimSuffix(files.WavPath, ".wav") + ".txt"
			err := logging.SaveReport(files.ReportPath, logging.ReportData{
				Device:     device,
				SampleRate: rec.SampleRate,
				Codec:      rec.Codec,
				StartTime:  rec.StartTime,
				Duration:   rec.Duration,
				Waveform:   rec.Waveform,
				Stats:      stats,
				Hum:        hum,
				Badge:      o.Badge,
				ExportPath: files.WavPath,
			})
			if err != nil {
				return files, err
			}
		}

		return files, nil
	}
}

// takePath picks an unused export path so takes started within the same
// second never overwrite each other.
func takePath(dir, base string) string {
	path := filepath.Join(dir, base+".wav")
	for i := 2; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.wav", base, i))
	}
}

func writeWav(path string, wav transcode.WavContainer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := wav.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// TranscodeCmd converts recorded takes to the canonical export format.
type TranscodeCmd struct {
	Output string   `short:"o" type:"existingdir" help:"Directory for converted files (default: beside each input)"`
	Files  []string `arg:"" name:"files" type:"existingfile" help:"FLAC or WAV files to convert"`
}

type convertResult struct {
	input    string
	output   string
	duration time.Duration
	err      error
}

func (t *TranscodeCmd) Run() error {
	bar := progressbar.NewOptions(len(t.Files),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
	)

	results := make([]convertResult, 0, len(t.Files))
	for _, path := range t.Files {
		results = append(results, t.convert(path))
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Printf(" ✗ %s: %v\n", filepath.Base(res.input), res.err)
			continue
		}
		fmt.Printf(" ✓ %s → %s (%s)\n", filepath.Base(res.input), filepath.Base(res.output), formatTakeDuration(res.duration))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(t.Files))
	}
	return nil
}

func (t *TranscodeCmd) convert(path string) convertResult {
	res := convertResult{input: path}

	blob, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		return res
	}

	wav, err := transcode.ToWav(blob)
	if err != nil {
		res.err = err
		return res
	}

	res.output = outputName(path, t.Output)
	res.duration = wav.Duration()
	res.err = writeWav(res.output, wav)
	return res
}

// outputName generates the converted filename from the input
func outputName(input, dir string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+"-pcm16.wav")
}

func formatTakeDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

// DevicesCmd lists the input devices the record command can select.
type DevicesCmd struct{}

func (DevicesCmd) Run() error {
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio host init: %w", err)
	}
	defer capture.Shutdown()

	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No input devices found.")
		return nil
	}

	fmt.Println("Input devices (* marks the system default):")
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf(" %s %2d  %s (%d ch, %d Hz)\n", marker, d.Index, d.Name, d.Channels, d.SampleRate)
	}
	return nil
}

// MissionsCmd prints the badge guide in award order.
type MissionsCmd struct{}

func (MissionsCmd) Run() error {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Sound Missions")
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	fmt.Println(title)
	fmt.Println()
	for _, rule := range missions.Guide() {
		fmt.Printf("🏅 %s\n   %s\n\n", rule.Name, hintStyle.Render(rule.Hint))
	}
	return nil
}
