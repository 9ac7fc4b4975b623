package zmachine

import (
	"fmt"

	"github.com/grue/fic/internal/zsave"
)

// Capture serializes the machine into a snapshot: story identity from
// the header, the current program counter, dynamic memory, and the full
// call stack. Capturing is side-effect free; the machine keeps running
// from the same state.
func (m *Machine) Capture() (*zsave.Snapshot, error) {
	frames := make([]zsave.Frame, len(m.frames))
	for i, f := range m.frames {
		frames[i] = zsave.Frame{
			ReturnPC: f.retPC,
			Store:    f.store,
			Locals:   append([]uint16(nil), f.locals...),
			Stack:    append([]uint16(nil), f.stack...),
		}
	}
	release := m.mem.Release()
	serial := m.mem.Serial()
	checksum := m.mem.Checksum()
	return &zsave.Snapshot{
		StoryID:  zsave.StoryID(release, serial, checksum),
		Release:  release,
		Serial:   serial,
		Checksum: checksum,
		PC:       m.pc,
		Dynamic:  m.mem.DynamicSnapshot(),
		Frames:   frames,
	}, nil
}

// RestoreSnapshot replaces all mutable state with the snapshot's. The
// snapshot must come from the loaded story; on any validation failure
// the machine is left exactly as it was.
func (m *Machine) RestoreSnapshot(snap *zsave.Snapshot) error {
	if !snap.Matches(m.mem.Release(), m.mem.Serial(), m.mem.Checksum()) {
		return fmt.Errorf("%w: snapshot for release %d serial %q",
			zsave.ErrIncompatibleSnapshot, snap.Release, snap.Serial)
	}
	if len(snap.Frames) == 0 {
		return fmt.Errorf("%w: no call frames", zsave.ErrBadSnapshotFormat)
	}
	if snap.PC >= m.mem.Size() {
		return fmt.Errorf("%w: pc 0x%X outside story", zsave.ErrBadSnapshotFormat, snap.PC)
	}
	if uint32(len(snap.Dynamic)) != m.mem.StaticBase() {
		return fmt.Errorf("%w: dynamic size %d, want %d",
			zsave.ErrBadSnapshotFormat, len(snap.Dynamic), m.mem.StaticBase())
	}

	frames := make([]frame, len(snap.Frames))
	for i, f := range snap.Frames {
		frames[i] = frame{
			retPC:  f.ReturnPC,
			store:  f.Store,
			locals: append([]uint16(nil), f.Locals...),
			stack:  append([]uint16(nil), f.Stack...),
		}
	}
	if err := m.mem.RestoreDynamic(snap.Dynamic); err != nil {
		return err
	}
	m.frames = frames
	m.pc = snap.PC
	return nil
}
