package tx

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/dirty"
	"github.com/joshuapare/arenakit/internal/format"
)

// ErrHeaderTooSmall indicates a mapping shorter than the header page.
var ErrHeaderTooSmall = errors.New("tx: mapping smaller than header page")

// Manager owns the header sequence numbers and orders flushes so the header
// is written only after the data it describes.
//
// The manager is NOT thread-safe. Only one goroutine should use it at a time.
type Manager struct {
	m    dirty.Mapping          // Mapping whose header is updated
	dt   dirty.FlushableTracker // Dirty range tracker
	mode dirty.FlushMode        // Flush mode for commits
	seq  uint32                 // PrimarySeq of the active transaction
	inTx bool                   // Whether a transaction is active
}

// NewManager creates a transaction manager for the given mapping.
func NewManager(m dirty.Mapping, dt dirty.FlushableTracker, mode dirty.FlushMode) *Manager {
	return &Manager{m: m, dt: dt, mode: mode}
}

// Begin starts a new transaction by incrementing PrimarySeq.
//
// If Begin is called while already in a transaction, it's a no-op.
func (m *Manager) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.inTx {
		return nil
	}

	data := m.m.Bytes()
	if len(data) < format.HeaderSize {
		return errors.Wrapf(ErrHeaderTooSmall, "%d bytes", len(data))
	}

	seq := format.ReadU32(data, format.PrimarySeqOffset) + 1
	format.PutU32(data, format.PrimarySeqOffset, seq)
	format.UpdateChecksum(data)
	m.dt.Add(0, format.HeaderSize)

	m.seq = seq
	m.inTx = true
	return nil
}

// Commit flushes dirty data, marks the transaction complete in the header and
// flushes the header.
//
// If Commit is called without an active transaction, it's a no-op. A
// cancelled context may leave some data ranges flushed; the header then
// still shows the transaction as open.
func (m *Manager) Commit(ctx context.Context) error {
	if !m.inTx {
		return nil
	}

	if err := m.dt.FlushDataOnly(ctx); err != nil {
		return errors.Wrap(err, "tx: flush data pages")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := m.m.Bytes()
	format.PutU32(data, format.SecondarySeqOffset, m.seq)
	format.UpdateChecksum(data)
	m.dt.Add(0, format.HeaderSize)

	if err := m.dt.FlushHeaderAndMeta(ctx, m.mode); err != nil {
		return errors.Wrap(err, "tx: flush header")
	}

	m.inTx = false
	return nil
}

// Rollback aborts the current transaction. PrimarySeq is restored so the
// header reads as clean again, and pending dirty ranges are dropped.
//
// Bytes already written to a shared mapping stay written; the OS may persist
// them at any time.
func (m *Manager) Rollback() {
	if !m.inTx {
		return
	}
	m.dt.Reset()
	if data := m.m.Bytes(); len(data) >= format.HeaderSize {
		format.PutU32(data, format.PrimarySeqOffset, m.seq-1)
		format.UpdateChecksum(data)
		m.dt.Add(0, format.HeaderSize)
	}
	m.inTx = false
}

// InTransaction returns whether a transaction is currently active.
func (m *Manager) InTransaction() bool {
	return m.inTx
}

// CurrentSequence returns the sequence number of the last Begin.
func (m *Manager) CurrentSequence() uint32 {
	return m.seq
}
