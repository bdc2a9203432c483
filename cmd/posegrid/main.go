// Command posegrid loads (or builds and caches) the frame-matrix dataset for a
// configuration, splits it and prints a summary.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/posegrid/cache"
	"github.com/YuminosukeSato/posegrid/config"
	"github.com/YuminosukeSato/posegrid/dataset"
	"github.com/YuminosukeSato/posegrid/partition"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/pkg/log"
	"github.com/YuminosukeSato/posegrid/preview"
)

type flags struct {
	configPath string
	xmlRoot    string
	cacheRoot  string
	logLevel   string
	workers    int
	seed       uint64
	rebuild    bool
	stratified bool
	previewDir string
	previewN   int
}

func parseFlags(fs *flag.FlagSet, args []string) (flags, map[string]bool, error) {
	var f flags
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file (defaults are used when empty)")
	fs.StringVar(&f.xmlRoot, "xml-root", "", "override paths.xml_root_path")
	fs.StringVar(&f.cacheRoot, "cache-root", "", "override paths.cache_root_path")
	fs.StringVar(&f.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
	fs.IntVar(&f.workers, "workers", 0, "override workers (0 = one per CPU)")
	fs.Uint64Var(&f.seed, "seed", 0, "override split.seed (0 = fresh entropy)")
	fs.BoolVar(&f.rebuild, "rebuild", false, "discard the cache entry and rebuild")
	fs.BoolVar(&f.stratified, "stratified", false, "split within each class")
	fs.StringVar(&f.previewDir, "preview-dir", "", "write preview images of training frames to this directory")
	fs.IntVar(&f.previewN, "preview-n", 8, "number of preview images")
	if err := fs.Parse(args); err != nil {
		return flags{}, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// loadConfig reads the configuration file and applies the flags that were
// given on the command line.
func loadConfig(f flags, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	var opts []config.Option
	if set["xml-root"] {
		opts = append(opts, config.WithXMLRoot(f.xmlRoot))
	}
	if set["cache-root"] {
		opts = append(opts, config.WithCacheRoot(f.cacheRoot))
	}
	if set["log-level"] {
		opts = append(opts, config.WithLogLevel(f.logLevel))
	}
	if set["workers"] {
		opts = append(opts, config.WithWorkers(f.workers))
	}
	if set["seed"] {
		opts = append(opts, config.WithSeed(f.seed))
	}
	return cfg.Apply(opts...)
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("posegrid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f, set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f, set)
	if err != nil {
		return err
	}
	if err := log.SetupLogger(cfg.LogLevel, stderr); err != nil {
		return err
	}

	c := cache.New(cfg.Paths.CacheRootPath)
	var ds *dataset.Dataset
	if f.rebuild {
		ds, err = c.Rebuild(cfg)
	} else {
		ds, err = c.LoadOrBuild(cfg)
	}
	if err != nil {
		return err
	}

	ratios := partition.Ratios{Train: cfg.Split.Train, ValidationShare: cfg.Split.ValidationShare}
	var opts []partition.Option
	if cfg.Split.Seed != 0 {
		opts = append(opts, partition.WithSeed(cfg.Split.Seed))
	}
	split := partition.Split
	if f.stratified {
		split = partition.StratifiedSplit
	}
	p, err := split(ds, ratios, opts...)
	if err != nil {
		return err
	}

	if f.previewDir != "" {
		paths, err := preview.SaveSample(p.Train, f.previewN, f.previewDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "previews:   %d written to %s\n", len(paths), f.previewDir)
	}

	printSummary(stdout, cache.KeyFor(cfg.Pipeline), ds, p)
	return nil
}

func printSummary(w io.Writer, key cache.Key, ds *dataset.Dataset, p *partition.Partitioned) {
	rows, cols := ds.Shape()
	fmt.Fprintf(w, "cache key:  %s\n", key.Name())
	fmt.Fprintf(w, "samples:    %d (%dx%d)\n", ds.Len(), rows, cols)
	fmt.Fprintf(w, "min frames: %d per file over %d files\n", ds.Stats.MinFrames, ds.Stats.Files)
	counts := ds.ClassCounts()
	for label, class := range ds.Classes {
		fmt.Fprintf(w, "  %2d %-20s %d\n", label, class, counts[label])
	}
	fmt.Fprintf(w, "split:      train=%d validation=%d test=%d\n",
		p.Train.Len(), p.Validation.Len(), p.Test.Len())
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("posegrid failed", log.ErrAttr(err))
		os.Exit(1)
	}
}
