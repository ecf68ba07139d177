package format

// BlockCapacity returns how many region records each of the two registries
// gets in a bookkeeping block of blockSize bytes:
//
//	(blockSize - CountersSize) / (RecordSize * RegistryCount)
//
// Free and used arrays always receive the same capacity. A result of zero
// means the block cannot hold even one record per registry.
func BlockCapacity(blockSize int) int {
	if blockSize < CountersSize {
		return 0
	}
	return (blockSize - CountersSize) / (RecordSize * RegistryCount)
}

// BlockSizeFor returns the smallest block size that yields records slots per registry.
func BlockSizeFor(records int) int {
	if records < 0 {
		records = 0
	}
	return CountersSize + records*RecordSize*RegistryCount
}

// FreeRecordsOffset returns the byte offset of the free record array.
func FreeRecordsOffset() int {
	return RecordsOffset
}

// UsedRecordsOffset returns the byte offset of the used record array for a
// block with the given per-registry capacity.
func UsedRecordsOffset(capacity int) int {
	return RecordsOffset + capacity*RecordSize
}
