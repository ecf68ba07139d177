package verify

import (
	"fmt"

	"github.com/joshuapare/arenakit/internal/format"
)

// FileHeader validates the header of an arena file image and checks that
// data is large enough for the bookkeeping block and arena it declares.
func FileHeader(data []byte) error {
	h, err := format.ParseHeader(data)
	if err != nil {
		return &ValidationError{
			Type:    "FileHeader",
			Message: err.Error(),
			Offset:  0,
		}
	}
	if h.MetaSize == 0 || int(h.MetaSize)&format.PageAlignmentMask != 0 {
		return &ValidationError{
			Type:    "FileHeader",
			Message: fmt.Sprintf("bookkeeping size not page aligned: 0x%X", h.MetaSize),
			Offset:  format.MetaSizeOffset,
		}
	}
	if format.BlockCapacity(int(h.MetaSize)) == 0 {
		return &ValidationError{
			Type:    "FileHeader",
			Message: fmt.Sprintf("bookkeeping block of %d bytes holds no records", h.MetaSize),
			Offset:  format.MetaSizeOffset,
		}
	}
	if h.ArenaSize == 0 {
		return &ValidationError{
			Type:    "FileHeader",
			Message: "arena size is zero",
			Offset:  format.ArenaSizeOffset,
		}
	}
	if int64(len(data)) < h.FileSize() {
		return &ValidationError{
			Type:    "FileHeader",
			Message: fmt.Sprintf("file too small: %d bytes (header declares %d)", len(data), h.FileSize()),
			Offset:  -1,
			Details: map[string]any{"actual": len(data), "declared": h.FileSize()},
		}
	}
	return nil
}

// SequenceNumbers reports an error when the header sequences differ, which
// means a transaction began but never committed.
func SequenceNumbers(data []byte) error {
	h, err := format.ParseHeader(data)
	if err != nil {
		return &ValidationError{Type: "SequenceNumbers", Message: err.Error(), Offset: 0}
	}
	if !h.Clean() {
		return &ValidationError{
			Type:    "SequenceNumbers",
			Message: fmt.Sprintf("primary %d != secondary %d", h.PrimarySeq, h.SecondarySeq),
			Offset:  format.PrimarySeqOffset,
			Details: map[string]any{"primary": h.PrimarySeq, "secondary": h.SecondarySeq},
		}
	}
	return nil
}
