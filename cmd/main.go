package main

import (
	"CredHunter/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "credhunter",
		Usage:     "Hunt for credential-looking file names and contents under one or more directories",
		ArgsUsage: "ROOT [ROOT...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Usage: "Path of the CSV report (overwritten on every run)",
				Value: "credhunter_report.csv",
			},
			&cli.BoolFlag{
				Name:  "scan-content",
				Usage: "Also extract and match file contents, not just file names",
			},
			&cli.Int64Flag{
				Name:  "max-size",
				Usage: "Max file size in bytes for content extraction; larger files get filename matching only",
				Value: 1 << 20,
			},
			&cli.StringSliceFlag{
				Name:  "keywords",
				Usage: "Override the keyword set (comma separated)",
			},
			&cli.StringSliceFlag{
				Name:  "ext",
				Usage: "Override the extension allow-list (comma separated, with or without dot)",
			},
			&cli.StringFlag{
				Name:  "pdf-tool",
				Usage: "Path to pdftotext; by default it is probed on PATH once at startup",
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Concurrent file workers (default 1, sequential)",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Max directory depth (0 - unlimited)",
				Value: 0,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Global timeout for the scan (e.g. 10m, 1h)",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress spinner while scanning",
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: func(c *cli.Context) error {
			internal.InitLogger(c.String("logfile"), c.String("log-level"))
			logrus.Info("credhunter started")

			// ctx with timeout + OS signals
			base := context.Background()

			var cancel context.CancelFunc
			if t := c.Duration("timeout"); t > 0 {
				base, cancel = context.WithTimeout(base, t)
			} else {
				base, cancel = context.WithCancel(base)
			}
			defer cancel()

			ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// roots
			var validRoots []string
			for _, r := range c.Args().Slice() {
				if st, err := os.Stat(r); err == nil && st.IsDir() {
					if abs, err := filepath.Abs(r); err == nil {
						r = abs
					}
					validRoots = append(validRoots, r)
				} else {
					logrus.Warnf("Skip: not a dir or inaccessible: %s", r)
				}
			}
			if len(validRoots) == 0 {
				return cli.Exit("No valid root directories", 1)
			}

			cfg := internal.ScanConfig{
				Roots:       validRoots,
				Output:      c.String("output"),
				ScanContent: c.Bool("scan-content"),
				MaxFileSize: c.Int64("max-size"),
				Keywords:    splitCSV(c.StringSlice("keywords")),
				Extensions:  splitCSV(c.StringSlice("ext")),
				Threads:     c.Int("threads"),
				Depth:       c.Int("depth"),
				PDFTool:     c.String("pdf-tool"),
				Progress:    c.Bool("progress"),
			}
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			cfg.Prepare() // build fast lookup maps, apply defaults

			matcher, err := internal.NewKeywordMatcher(cfg.Keywords)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			extractor := internal.NewExtractor(cfg.PDFTool, cfg.MaxFileSize)

			var stats internal.AppStats
			stats.Start()

			scanner := internal.NewCredScanner()
			records, err := scanner.Scan(ctx, cfg, matcher, extractor, &stats)
			if err != nil {
				if ctx.Err() != nil {
					logrus.Warn("Scan cancelled, writing what was collected")
				} else {
					logrus.WithError(err).Error("Scan failed")
				}
			}

			if err := internal.WriteReport(cfg.Output, records); err != nil {
				return cli.Exit(fmt.Sprintf("write report: %v", err), 1)
			}

			fmt.Printf(
				"\n======= Scan finished in %s =======\nTotal files scanned: %d\nTotal matches found: %d\nErrors: %d\nReport: %s\n",
				stats.Elapsed(), stats.FilesProcessed.Load(), stats.Matches.Load(), stats.Errors.Load(), cfg.Output,
			)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// splitCSV flattens repeated flags and comma separated values.
func splitCSV(in []string) []string {
	var out []string
	for _, s := range in {
		for _, v := range strings.Split(s, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
