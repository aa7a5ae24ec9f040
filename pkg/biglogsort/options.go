package biglogsort

import (
	"github.com/0xRadioAc7iv/biglog-sort/internal"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

type Option func(*internal.Config)

// WithKeywords sets the prefixes the keyword pass looks for.
func WithKeywords(prefixes ...string) Option {
	return func(c *internal.Config) {
		c.Keywords = prefixes
	}
}

// WithPattern keys lines by the first submatch of a regular expression
// instead of by prefixes.
func WithPattern(pattern string) Option {
	return func(c *internal.Config) {
		c.Pattern = pattern
	}
}

// WithPolicy selects the key policy by name ("group" or "identity").
func WithPolicy(name string) Option {
	return func(c *internal.Config) {
		c.Policy = name
	}
}

func WithTempDir(dir string) Option {
	return func(c *internal.Config) {
		c.TempDir = dir
	}
}

// WithSpillDir makes the sorter write chunks to dir. A directory that
// already exists is left in place; one the sorter had to create is removed
// with the chunks.
func WithSpillDir(dir string) Option {
	return func(c *internal.Config) {
		c.SpillDir = dir
	}
}

func WithItemBudget(items int) Option {
	return func(c *internal.Config) {
		c.ItemBudget = items
	}
}

func WithFS(fs vfs.FS) Option {
	return func(c *internal.Config) {
		c.FS = fs
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *internal.Config) {
		c.Logger = logger
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg *internal.Config) Option {
	return func(c *internal.Config) {
		*c = *cfg
	}
}
