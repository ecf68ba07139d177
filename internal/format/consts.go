// Package format holds the on-disk and in-block layout of a relocatable arena:
// the header page of an arena file and the bookkeeping block that stores the
// free and used region records. Every multi-byte field is little-endian so a
// block written by one process reads identically in any other.
package format

var (
	// ArenaSignature is the four-byte signature at the start of every arena file.
	// Layout:
	//   0x00  'A' 'R' 'N' 'A'
	ArenaSignature = []byte{'A', 'R', 'N', 'A'}
)

const (
	// Version is the current arena file layout version.
	Version = 1

	// HeaderSize is the size of the arena file header. The header occupies one
	// full page so the bookkeeping block that follows starts page aligned.
	HeaderSize = 4096

	// PageSize is the alignment used for the bookkeeping block and arena data.
	PageSize = 0x1000

	// PageAlignmentMask is the bitmask used for aligning to 4KB boundaries (PageSize - 1).
	PageAlignmentMask = PageSize - 1

	// Header field offsets.
	SignatureOffset    = 0x00 // 4
	SignatureSize      = 4
	VersionOffset      = 0x04 // u32
	MetaSizeOffset     = 0x08 // u32, bookkeeping block size in bytes
	ArenaSizeOffset    = 0x0C // u32, managed arena size in bytes
	PrimarySeqOffset   = 0x10 // u32
	SecondarySeqOffset = 0x14 // u32
	ChecksumOffset     = 0x18 // u32, XOR of the dwords before it

	// HeaderFieldsSize is the number of header bytes covered by fields, checksum included.
	HeaderFieldsSize = 0x1C
)

const (
	// CounterSize is the width of one region-count counter.
	CounterSize = 4

	// CountersSize is the space taken by the free and used counters at the
	// start of a bookkeeping block.
	CountersSize = 2 * CounterSize

	// FreeCountOffset and UsedCountOffset locate the two counters in a block.
	FreeCountOffset = 0x00
	UsedCountOffset = 0x04

	// RecordsOffset is where the free record array begins. The used record
	// array immediately follows the free array.
	RecordsOffset = CountersSize

	// RecordSize is the size of one region record: offset u32 then size u32.
	RecordSize = 8

	// RecordOffsetField and RecordSizeField are field offsets inside a record.
	RecordOffsetField = 0x00
	RecordSizeField   = 0x04

	// RegistryCount is the number of record arrays in a block (free + used).
	RegistryCount = 2
)
