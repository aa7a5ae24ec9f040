package main

import (
	"fmt"
	"io"
	"os"

	"github.com/0xRadioAc7iv/biglog-sort/core"
	"github.com/0xRadioAc7iv/biglog-sort/internal"
	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
	"github.com/0xRadioAc7iv/biglog-sort/pkg/biglogsort"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr, os.LookupEnv))
}

func run(args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	argv0 := "biglog-sort"
	if len(args) > 0 {
		argv0 = args[0]
	}

	path, ok := utils.HandleCLIInputs(args)
	if !ok {
		fmt.Fprintln(stdout, utils.Usage(argv0))
		return 0
	}

	cfg := internal.DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		fmt.Fprintln(stderr, "Error while reading environment:", err)
		return 1
	}

	logger, err := utils.NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "Error while creating logger:", err)
		return 1
	}
	defer logger.Sync()
	cfg.Logger = logger

	if err := utils.SelectAllocator(cfg.Allocator, cfg.MemoryLimit); err != nil {
		logger.Error("invalid allocator", zap.Error(err))
		return 1
	}

	// created by the sorter on its first spill
	spillDir := utils.SpillDirectoryPath(cfg.TempDir)
	defer utils.RemoveSpillDirectory(spillDir)

	stop := utils.CleanupOnInterruptOrKill(func() {
		utils.RemoveSpillDirectory(spillDir)
	})
	defer stop()

	stats, err := biglogsort.Sort(path, stdout,
		biglogsort.WithConfig(cfg),
		biglogsort.WithSpillDir(spillDir),
	)
	if err != nil {
		logger.Error("sort failed",
			zap.String("path", path),
			zap.String("kind", string(core.Classify(err))),
			zap.Error(err),
		)
		return 1
	}

	logger.Debug("done",
		zap.Uint64("lines", stats.Lines),
		zap.Int("keywords", stats.Keywords),
		zap.Int("chunks", stats.Chunks),
	)
	return 0
}
