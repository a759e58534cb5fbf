// Copyright 2025 The TopicServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the topic search server and CLI [DBG] application.

TopicServe indexes a catalog of programming topics and subtopics, grouped by
language, and answers prefix, fuzzy and multi-term queries against it. It can
operate as a MessagePack IPC server for integration with other applications,
or as a CLI application for testing and debugging.

On startup the index is restored from a snapshot in the key-value store. When
no usable snapshot exists the dataset is loaded, the index is built, and a new
snapshot is saved for the next start.

# Usage

Start the server with default settings:

	topicserve

Use a custom dataset and a fresh build, with debug logs:

	topicserve -data /path/to/contents.json -fresh -d

Run in CLI mode for interactive testing:

	topicserve -c -limit 10 -th 0.85

The dataset is a JSON object mapping a language to its color and topics, each
topic mapping subtopic names to descriptions:

	{"python": {"color": "#3572A5", "Arrays": {"Sorting": "...", "Searching": "..."}}}

# Configuration

Runtime configuration is managed through a TOML file created with defaults
when missing:

	[server]
	max_limit = 64
	min_prefix = 1
	max_prefix = 60
	enable_filter = true

	[index]
	fuzzy_threshold = 0.8
	cache_size = 1024

	[store]
	backend = "badger"
	data_dir = "store"
	key = "searchTrie"

	[dataset]
	path = "data/contents.json"

Values that fail to parse fall back to their defaults; the rest of the file
still applies.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Logs go to stderr.

	{"id": "req1", "op": "search", "q": "reccursion", "fuzzy": true}
	{"id": "req1", "r": [{"t": "Recursion", "lg": "python", "c": "#3572A5"}], "c": 1, "t": 88}

See package server for every op.

# Command Line Flags

	-data string
	    Path to the dataset JSON (default from config)
	-store string
	    Snapshot store directory; empty keeps snapshots in memory (default from config)
	-config string
	    Path to a config file
	-fresh
	    Ignore any stored snapshot and rebuild from the dataset
	-export string
	    Write the index snapshot JSON to a file and exit
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of results to show in CLI mode
	-th float
	    Fuzzy similarity threshold in (0, 1]
	-no-filter
	    Disable input filtering in CLI mode
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/topicserve/internal/cli"
	"github.com/bastiangx/topicserve/internal/logger"
	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/config"
	"github.com/bastiangx/topicserve/pkg/dataset"
	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bastiangx/topicserve/pkg/server"
	"github.com/bastiangx/topicserve/pkg/store"
	badgerstore "github.com/bastiangx/topicserve/pkg/store/badger"
	"github.com/bastiangx/topicserve/pkg/store/memory"
	"github.com/bastiangx/topicserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "topicserve"
	gh      = "https://github.com/bastiangx/topicserve"
)

// gcDiscardRatio is handed to badger's value log GC after a rebuild.
const gcDiscardRatio = 0.5

// sigHandler exits on SIGINT/SIGTERM after running cleanup.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cleanup()
		os.Exit(0)
	}()
}

// main wires config, storage and the index into the server or the CLI.
// It does not implement logic for them and only manages the flow.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", "", "Path to the dataset JSON (default from config)")
	storeDir := flag.String("store", "", "Snapshot store directory; empty keeps snapshots in memory (default from config)")
	configPath := flag.String("config", "", "Path to a config file")
	fresh := flag.Bool("fresh", false, "Ignore any stored snapshot and rebuild from the dataset")
	exportPath := flag.String("export", "", "Write the index snapshot JSON to this file and exit")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, "Number of results to show in CLI mode (default from config)")
	threshold := flag.Float64("th", 0, "Fuzzy similarity threshold in (0, 1] (default from config)")
	noFilter := flag.Bool("no-filter", false, "Disable input filtering (DBG only)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)
	log.Debugf("%s %s starting", AppName, Version)

	cfg, activeConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activeConfig))

	applyFlags(cfg, *dataPath, *storeDir, *limit, *threshold)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Error("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	log.Debugf("Config dir: %s", pathResolver.ConfigDir())
	datasetPath := pathResolver.GetDatasetPath(cfg.Dataset.Path)
	log.Debugf("Using dataset at: %s", datasetPath)

	kv, err := openStore(cfg.Store, pathResolver)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	sigHandler(func() { kv.Close() })
	defer kv.Close()

	ctx := context.Background()
	opts := []index.Option{index.WithCacheSize(cfg.Index.CacheSize)}
	snapshots := store.NewSnapshots(kv, cfg.Store.Key, opts...)

	build := func() (*index.Index, error) {
		start := time.Now()
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return nil, err
		}
		idx, stats := dataset.Build(ds, opts...)
		log.Debugf("Built index from %s in %v: %d inserted, %d rejected", datasetPath, time.Since(start), stats.Inserted, stats.Rejected)
		return idx, nil
	}

	if *fresh {
		if err := snapshots.Clear(ctx); err != nil {
			log.Warnf("Failed to clear snapshot: %v", err)
		}
	}

	idx, restored, err := snapshots.LoadOrBuild(ctx, build)
	if err != nil {
		log.Fatalf("Failed to init index: %v", err)
	}
	log.Debug("Index ready", "keys", idx.Keys(), "records", idx.Len(), "restored", restored)

	if *exportPath != "" {
		if err := exportSnapshot(idx, *exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", cfg.CLI.DefaultLimit, "threshold", cfg.CLI.DefaultThreshold, "noFilter", *noFilter)

		inputHandler := cli.NewInputHandler(idx, suggest.FromIndex(idx), cfg.CLI.DefaultLimit, cfg.CLI.DefaultThreshold, *noFilter, os.Stdout)
		if err := inputHandler.Start(os.Stdin); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	rebuild := func(ctx context.Context) (*index.Index, error) {
		idx, err := build()
		if err != nil {
			return nil, err
		}
		if err := snapshots.Save(ctx, idx); err != nil {
			return nil, err
		}
		if gc, ok := kv.(interface{ RunGC(float64) error }); ok {
			if err := gc.RunGC(gcDiscardRatio); err != nil {
				log.Warnf("Snapshot store GC failed: %v", err)
			}
		}
		return idx, nil
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(idx, cfg, rebuild)

	showStartupInfo(datasetPath, idx, restored)

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cfg *config.Config, dataPath, storeDir string, limit int, threshold float64) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Dataset.Path = dataPath
		case "store":
			if storeDir == "" {
				cfg.Store.Backend = config.BackendMemory
				return
			}
			cfg.Store.Backend = config.BackendBadger
			cfg.Store.DataDir = storeDir
		case "limit":
			if limit > 0 {
				cfg.CLI.DefaultLimit = limit
			}
		case "th":
			if threshold > 0 && threshold <= 1 {
				cfg.CLI.DefaultThreshold = threshold
				cfg.Index.FuzzyThreshold = threshold
			} else {
				log.Warnf("Ignoring threshold %v outside (0, 1]", threshold)
			}
		}
	})
}

// openStore opens the configured snapshot backend.
func openStore(cfg config.StoreConfig, pr *utils.PathResolver) (store.KVStore, error) {
	if cfg.Backend == config.BackendMemory {
		log.Debug("Keeping snapshots in memory")
		return memory.New(), nil
	}

	dir := pr.GetStoreDir(cfg.DataDir)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	log.Debugf("Using snapshot store at: %s", dir)
	return badgerstore.New(&badgerstore.Config{DataDir: dir})
}

// exportSnapshot writes the serialized index to path.
func exportSnapshot(idx *index.Index, path string) error {
	text, err := index.Serialize(idx)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Infof("Exported %d keys to %s", idx.Keys(), utils.GetAbsolutePath(path))
	return nil
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ TopicServe ] Searches topics by prefix, typo and term")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(datasetPath string, idx *index.Index, restored bool) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	source := "dataset"
	if restored {
		source = "snapshot"
	}

	println("============")
	println(" TopicServe ")
	println("============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dataset: ( %s )", datasetPath)
	log.Infof("index: %d keys, %d records from %s", idx.Keys(), idx.Len(), source)
	log.Info("status: ready")
	println("============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
