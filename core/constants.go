package core

const (
	readBufferSize   = 1024 * 1024
	outputBufferSize = 1024 * 1024

	PolicyGroup    = "group"
	PolicyIdentity = "identity"
)

// DefaultKeywordPrefixes are the markers PrefixExtractor looks for when no
// other keywords are configured.
var DefaultKeywordPrefixes = []string{"session=", "tid=", "thread=", "req="}
