package biglogsort

import (
	"io"

	"github.com/0xRadioAc7iv/biglog-sort/core"
	"github.com/0xRadioAc7iv/biglog-sort/internal"
	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
)

// Stats summarizes one Sort.
type Stats = core.Stats

// Sort writes the lines of the file at path to out, ordered by their
// keyword-derived keys.
//
// Unless WithSpillDir is given, chunks go to a fresh directory under the temp
// directory. It is only created if the input outgrows one in-memory buffer
// and is removed before Sort returns. Any error is fatal; out may then hold a
// partial, unordered result that callers must discard.
func Sort(path string, out io.Writer, opts ...Option) (Stats, error) {
	cfg := internal.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	spillDir := cfg.SpillDir
	if spillDir == "" {
		spillDir = utils.SpillDirectoryPath(cfg.TempDir)
		if cfg.FS == nil {
			defer utils.RemoveSpillDirectory(spillDir)
		}
	}

	pipeline, err := cfg.Pipeline(spillDir)
	if err != nil {
		return Stats{}, err
	}

	return pipeline.Run(path, out)
}
