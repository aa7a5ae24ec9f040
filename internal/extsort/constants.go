package extsort

const (
	OneMegabyte = 1024 * 1024 // 1024 (1KB) * 1024 => 1MB
	OneGigabyte = 1024 * OneMegabyte

	MemoryCeiling      = 1 * OneGigabyte // Memory a single in-memory buffer may use
	AvgRecordSizeBytes = 128             // Assumed average size of one line

	// DefaultItemBudget is the number of records held in memory before a spill.
	DefaultItemBudget = MemoryCeiling / AvgRecordSizeBytes

	ChunkFileExt = ".chunk"

	writeBufferSize = 1 * OneMegabyte
	readBufferSize  = 256 * 1024

	// Buffers start small and grow towards the item budget on demand.
	initialBufferCap = 4096
)
