package internal

import (
	"fmt"
	"strings"

	"github.com/0xRadioAc7iv/biglog-sort/core"
	"github.com/0xRadioAc7iv/biglog-sort/internal/extsort"
	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

// Config holds everything a sort run can be tuned with. The item budget is
// fixed for the CLI; only programmatic callers change it.
type Config struct {
	ItemBudget  int
	TempDir     string // Parent of the spill directory
	SpillDir    string // Picked under TempDir when empty
	LogLevel    string
	Keywords    []string // Prefixes for the keyword pass
	Pattern     string   // Regular expression; takes precedence over Keywords
	Policy      string
	Allocator   string
	MemoryLimit int64 // Soft limit handed to the throughput allocator

	FS     vfs.FS
	Logger *zap.Logger
}

const (
	EnvTempDir   = "BIGLOG_SORT_TMPDIR"
	EnvLogLevel  = "BIGLOG_SORT_LOG_LEVEL"
	EnvKeywords  = "BIGLOG_SORT_KEYWORDS"
	EnvPattern   = "BIGLOG_SORT_PATTERN"
	EnvPolicy    = "BIGLOG_SORT_POLICY"
	EnvAllocator = "BIGLOG_SORT_ALLOCATOR"
)

func DefaultConfig() *Config {
	return &Config{
		ItemBudget:  extsort.DefaultItemBudget,
		LogLevel:    utils.DefaultLogLevel,
		Keywords:    append([]string(nil), core.DefaultKeywordPrefixes...),
		Policy:      core.PolicyGroup,
		Allocator:   utils.AllocatorThroughput,
		MemoryLimit: 2 * extsort.MemoryCeiling,
	}
}

// ApplyEnv overlays the BIGLOG_SORT_* variables found through lookup.
// Unset or blank variables leave the current value alone.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvTempDir); ok {
		c.TempDir = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := get(EnvKeywords); ok {
		words, err := shellquote.Split(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvKeywords, err)
		}
		if len(words) > 0 {
			c.Keywords = words
		}
	}
	if v, ok := get(EnvPattern); ok {
		c.Pattern = v
	}
	if v, ok := get(EnvPolicy); ok {
		c.Policy = strings.ToLower(v)
	}
	if v, ok := get(EnvAllocator); ok {
		c.Allocator = strings.ToLower(v)
	}

	return nil
}

// Extractor builds the keyword extractor the configuration asks for.
func (c *Config) Extractor() (core.KeywordExtractor, error) {
	if c.Pattern != "" {
		return core.NewRegexpExtractor(c.Pattern)
	}
	if len(c.Keywords) == 0 {
		return core.NewPrefixExtractor(core.DefaultKeywordPrefixes), nil
	}
	return core.NewPrefixExtractor(c.Keywords), nil
}

// Pipeline assembles a core.Pipeline writing chunks to spillDir.
func (c *Config) Pipeline(spillDir string) (*core.Pipeline, error) {
	extractor, err := c.Extractor()
	if err != nil {
		return nil, err
	}
	policy, err := core.PolicyByName(c.Policy, extractor)
	if err != nil {
		return nil, err
	}

	return &core.Pipeline{
		Extractor:  extractor,
		Policy:     policy,
		FS:         c.FS,
		SpillDir:   spillDir,
		ItemBudget: c.ItemBudget,
		Logger:     c.Logger,
	}, nil
}
