// Command mctag tags strip clusters in a stream of simulated events as
// merged or unmerged, using the events' simulation truth, and reports the
// merged-cluster populations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/mctag/internal/config"
	"github.com/banshee-data/mctag/internal/eventio"
	"github.com/banshee-data/mctag/internal/report"
	"github.com/banshee-data/mctag/internal/tagging"
	"github.com/banshee-data/mctag/internal/truth"
	"github.com/banshee-data/mctag/internal/version"
)

// Options holds the command-line settings.
type Options struct {
	EventsFile  string
	ConfigFile  string
	Mode        string
	Workers     int
	OutputFile  string
	OutputJSON  string
	PlotFile    string
	Verbose     bool
	ShowVersion bool
}

func main() {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Println("mctag", version.String())
		return
	}
	if opts.EventsFile == "" {
		log.Fatal("-events is required (use - for stdin)")
	}

	var trace io.Writer
	if opts.Verbose {
		trace = os.Stderr
	}
	tagging.SetLogWriters(os.Stderr, os.Stderr, trace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("mctag: %v", err)
	}
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.EventsFile, "events", "", "Event file (NDJSON, optionally .gz or .zst); - reads stdin")
	flag.StringVar(&opts.ConfigFile, "config", "", "Tagger config file (.json, .yaml or .yml)")
	flag.StringVar(&opts.Mode, "mode", "", "Override association mode: detailed or simplified")
	flag.IntVar(&opts.Workers, "workers", 0, "Override the number of per-event classification workers")
	flag.StringVar(&opts.OutputFile, "out", "", "Write tagged collections as NDJSON to this file")
	flag.StringVar(&opts.OutputJSON, "json", "", "Write the run summary as JSON to this file")
	flag.StringVar(&opts.PlotFile, "plot", "", "Write merged/unmerged width histograms to this image file")
	flag.BoolVar(&opts.Verbose, "v", false, "Enable per-event trace logging")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()
	return opts
}

// loadConfig reads the tagger config and applies command-line overrides.
func loadConfig(opts Options) (tagging.Config, error) {
	tc := config.EmptyTaggerConfig()
	if opts.ConfigFile != "" {
		loaded, err := config.LoadTaggerConfig(opts.ConfigFile)
		if err != nil {
			return tagging.Config{}, err
		}
		tc = loaded
	}

	modeName := tc.GetMode()
	if opts.Mode != "" {
		modeName = opts.Mode
	}
	mode, err := tagging.ParseMode(modeName)
	if err != nil {
		return tagging.Config{}, err
	}

	cfg := tagging.Config{
		InputLabel:  tc.GetUntaggedClusterProducer(),
		OutputLabel: tc.GetOutputLabel(),
		Mode:        mode,
		Associator: truth.Config{
			AssociateStrip: tc.GetAssociateStrip(),
			ROUList:        tc.GetROUList(),
		},
		ReserveClusters: tc.GetReserveClusters(),
		ReserveSamples:  tc.GetReserveSamples(),
		Workers:         tc.GetWorkers(),
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	return cfg, nil
}

func run(ctx context.Context, opts Options, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	producer, err := tagging.NewProducer(cfg)
	if err != nil {
		return err
	}

	in, err := eventio.Open(opts.EventsFile)
	if err != nil {
		return err
	}
	defer in.Close()
	reader := eventio.NewReader(in)

	var writer *eventio.Writer
	if opts.OutputFile != "" {
		f, err := os.Create(opts.OutputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		writer = eventio.NewWriter(f, cfg.OutputLabel)
	}

	collector := report.NewCollector(cfg.Mode)
	log.Printf("run %s: tagging %q -> %q in %s mode with %d worker(s)",
		collector.RunID(), cfg.InputLabel, cfg.OutputLabel, cfg.Mode, cfg.Workers)

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		out, stats, err := producer.Produce(ctx, ev)
		if err != nil {
			return err
		}
		collector.Add(out, stats)

		if writer != nil {
			if err := writer.Write(ev); err != nil {
				return err
			}
		}
	}

	summary := collector.Summary()
	if err := summary.WriteText(stdout); err != nil {
		return err
	}

	if opts.OutputJSON != "" {
		if err := summary.WriteJSON(opts.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Summary exported to: %s", opts.OutputJSON)
		}
	}
	if opts.PlotFile != "" {
		if err := collector.PlotWidths(opts.PlotFile); err != nil {
			log.Printf("Warning: failed to plot widths: %v", err)
		} else {
			log.Printf("Width plot written to: %s", opts.PlotFile)
		}
	}
	return nil
}
