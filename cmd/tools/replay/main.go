package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/rower"
	"github.com/rowsense/rowsense/internal/telemetry"
)

// replay feeds a recorded session log back through the stroke engine and
// writes one CSV row per detected stroke. Useful for tuning rower profiles
// against captured data without hardware.
func main() {
	sessionPath := flag.String("session", "", "Path to recorded session log (.rlog)")
	configPath := flag.String("config", "", "Path to configuration file (for the rower profile)")
	output := flag.String("output", "", "Output CSV file (default stdout)")

	flag.Parse()

	if *sessionPath == "" {
		log.Fatal("Error: -session parameter is required")
	}

	cfg := config.LoadOrDefault(*configPath)

	messages, err := telemetry.ReadSession(*sessionPath)
	if err != nil {
		log.Fatalf("Error reading session: %v\n", err)
	}
	if len(messages) == 0 {
		log.Printf("Warning: session contains no impulses\n")
		return
	}

	fmt.Fprintf(os.Stderr, "Replaying %d impulses\n", len(messages))

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			log.Fatalf("Error creating output file: %v\n", err)
		}
		defer func() { _ = out.Close() }()
	}

	w := csv.NewWriter(out)
	header := []string{
		"stroke", "time_s", "distance_m", "stroke_rate_spm",
		"drive_s", "recovery_s", "power_w", "drag_factor", "speed_ms",
	}
	if err := w.Write(header); err != nil {
		log.Fatalf("Error writing CSV header: %v\n", err)
	}

	engine := rower.NewEngine(cfg.Rower)

	lastStroke := 0
	for _, msg := range messages {
		engine.OnImpulse(msg.Delta())

		m := engine.Metrics()
		if m.StrokeCount == lastStroke {
			continue
		}
		lastStroke = m.StrokeCount

		row := []string{
			fmt.Sprintf("%d", m.StrokeCount),
			fmt.Sprintf("%.2f", m.TotalTime.Seconds()),
			fmt.Sprintf("%.1f", m.Distance),
			fmt.Sprintf("%.1f", m.StrokeRate),
			fmt.Sprintf("%.2f", m.DriveDuration.Seconds()),
			fmt.Sprintf("%.2f", m.RecoveryDuration.Seconds()),
			fmt.Sprintf("%.1f", m.AverageStrokePower),
			fmt.Sprintf("%.1f", m.DragFactor),
			fmt.Sprintf("%.2f", m.Speed),
		}
		if err := w.Write(row); err != nil {
			log.Fatalf("Error writing CSV row: %v\n", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Error flushing CSV: %v\n", err)
	}

	final := engine.Metrics()
	filter := engine.Flywheel().Filter()
	fmt.Fprintf(os.Stderr, "Strokes: %d  Distance: %.1fm  Time: %.1fs  Drag: %.1f\n",
		final.StrokeCount, final.Distance, final.TotalTime.Seconds(), final.DragFactor)
	fmt.Fprintf(os.Stderr, "Calibration stabilized: %v  Factors: %v\n",
		filter.IsStabilized(), filter.CorrectionFactors())
}
