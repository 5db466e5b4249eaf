// Command fetch downloads one or more URLs concurrently, splitting
// each into ranged HTTP segments when the server supports it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"fetchkit/internal/config"
	"fetchkit/internal/errs"
	"fetchkit/internal/ftpdl"
	"fetchkit/internal/httpdl"
	"fetchkit/internal/progress"
	"fetchkit/internal/urlpattern"
)

// stringSlice collects repeated -u/--url flags.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var urls stringSlice
	var inputPath, outputDir, configPath string
	concurrency := 8
	var quiet, verbose bool

	flag.Var(&urls, "u", "a URL to download (repeatable)")
	flag.Var(&urls, "url", "a URL to download (repeatable)")
	flag.StringVar(&inputPath, "i", "", "file of one URL per line")
	flag.StringVar(&inputPath, "input", "", "file of one URL per line")
	flag.StringVar(&outputDir, "o", ".", "output directory")
	flag.StringVar(&outputDir, "output", ".", "output directory")
	flag.IntVar(&concurrency, "c", 8, "segments per download")
	flag.IntVar(&concurrency, "concurrency", 8, "segments per download")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.BoolVar(&quiet, "quiet", false, "disable progress reporting")
	flag.BoolVar(&verbose, "v", false, "enable verbose logging")
	flag.Parse()

	all, err := gatherURLs(urls, inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if len(all) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one URL is required (-u or -i)")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if !isFlagSet("c") && !isFlagSet("concurrency") {
		concurrency = cfg.HTTPConcurrency
	}

	log := newLogger(verbose)
	defer log.Sync()

	for _, u := range all {
		if err := fetchOne(u, outputDir, concurrency, quiet, log); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func gatherURLs(flagURLs stringSlice, inputPath string) ([]string, error) {
	var raw []string
	raw = append(raw, flagURLs...)

	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", errs.UserInputError, inputPath, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				raw = append(raw, line)
			}
		}
	}

	var expanded []string
	for _, u := range raw {
		group, err := urlpattern.Expand(u)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, group...)
	}
	return expanded, nil
}

func fetchOne(rawURL, outputDir string, concurrency int, quiet bool, log *zap.SugaredLogger) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parsing %s: %v", errs.UserInputError, rawURL, err)
	}

	if parsed.Scheme == "ftp" {
		log.Infow("ftp download", "url", rawURL)
		path, err := ftpdl.Download(parsed, outputDir)
		if err != nil {
			return err
		}
		fmt.Println("saved to", path)
		return nil
	}

	log.Infow("http download", "url", rawURL, "concurrency", concurrency)
	o := &httpdl.Orchestrator{Concurrency: concurrency, OutputDir: outputDir}
	if !quiet {
		o.NewReporter = func(max int64, label string) progress.Reporter {
			return progress.NewByteBar(max, label)
		}
	}
	res, err := o.Download(context.Background(), rawURL)
	if err != nil {
		return err
	}
	fmt.Printf("saved to %s (%d bytes)\n", res.Path, res.Length)
	return nil
}

func newLogger(verbose bool) *zap.SugaredLogger {
	var l *zap.Logger
	var err error
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		l, err = cfg.Build()
	}
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}
