// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/format"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/version"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// runFetchCLI fetches one transcript without the daemon, straight to
// stdout or a file. This is the "run it from your own network" mode:
// requests originate from the local machine, so they are not subject to
// the cloud egress IP blocks that hit hosted deployments.
func runFetchCLI(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		rawURL    = fs.String("url", "", "video URL (any youtube.com or youtu.be form)")
		videoID   = fs.String("video", "", "video ID (alternative to --url)")
		langs     = fs.String("lang", "", "comma-separated language priority list (default: en)")
		translate = fs.String("translate", "", "translation fallback target language")
		name      = fs.String("format", "text", "output format: "+strings.Join(format.Names(), ", "))
		outPath   = fs.String("out", "", "write output to file instead of stdout")
		asReport  = fs.Bool("report", false, "print the analysis report (JSON) instead of the transcript")
		preserve  = fs.Bool("preserve-formatting", false, "keep inline markup (<b>, <i>) in segment text")
	)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  vid-text fetch --url https://youtu.be/... [--lang en,de] [--format srt] [--out file.srt]")
		fmt.Fprintln(os.Stderr, "  vid-text fetch --video dQw4w9WgXcQ --report")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	input := strings.TrimSpace(*rawURL)
	if input == "" {
		input = strings.TrimSpace(*videoID)
	}
	if input == "" && fs.NArg() > 0 {
		input = strings.TrimSpace(fs.Arg(0))
	}
	if input == "" {
		fmt.Fprintln(os.Stderr, "Error: --url or --video is required")
		fs.Usage()
		return 2
	}

	// Keep stdout clean for the transcript; only warnings reach stderr.
	vtlog.Configure(vtlog.Config{
		Level:   "warn",
		Service: "vid-text",
		Version: version.Version,
	})

	// Environment still applies (proxy, user agent, timeouts), flags win.
	cfg, err := config.NewLoader("", version.Version).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	preferred := cfg.Languages
	if strings.TrimSpace(*langs) != "" {
		preferred = splitList(*langs)
	}
	translateTo := cfg.TranslateTo
	if strings.TrimSpace(*translate) != "" {
		translateTo = strings.TrimSpace(*translate)
	}

	if !*asReport {
		if _, err := format.Get(*name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (supported: %s)\n", err, strings.Join(format.Names(), ", "))
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := youtube.New(youtube.Options{
		Timeout:          cfg.YouTube.Timeout,
		UserAgent:        cfg.YouTube.UserAgent,
		Proxy:            upstreamProxy(cfg.Proxy),
		RateRPS:          cfg.YouTube.RateRPS,
		RateBurst:        cfg.YouTube.RateBurst,
		BreakerThreshold: cfg.YouTube.BreakerThreshold,
		BreakerReset:     cfg.YouTube.BreakerReset,
	})

	id, err := youtube.ExtractVideoID(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	info, err := client.Lookup(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sel, err := youtube.Select(info.Tracks, preferred, translateTo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	t, err := client.FetchTrack(ctx, id, sel.Track, youtube.FetchOptions{
		PreserveFormatting: *preserve,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var out []byte
	if *asReport {
		out, err = json.MarshalIndent(report.Build(t), "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	} else {
		f, ferr := format.Get(*name)
		if ferr != nil {
			err = ferr
		} else {
			out, err = f.Format(t)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, out, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outPath, err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%s, %d segments)\n", *outPath, sel.Info.LanguageCode, len(t.Segments))
		return 0
	}

	if _, err := os.Stdout.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func splitList(s string) []string {
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
