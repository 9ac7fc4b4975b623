// Package zsave implements the persistent save format: a CBOR-encoded
// capture of dynamic memory, the call stack, and the program counter,
// stamped with the loaded story's identity so a restore against a
// different game is rejected. Snapshots live either in bare files or in a
// SQLite-backed slot store.
package zsave

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var (
	ErrIncompatibleSnapshot = errors.New("snapshot does not match loaded story")
	ErrBadSnapshotFormat    = errors.New("malformed snapshot data")
)

// magic and formatVersion prefix every marshaled snapshot.
var magic = []byte("FICS")

const formatVersion = 1

// encMode uses canonical CBOR so that identical machine state always
// marshals to identical bytes.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("zsave: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Frame is one serialized call frame.
type Frame struct {
	ReturnPC uint32   `cbor:"1,keyasint"`
	Store    uint8    `cbor:"2,keyasint"`
	Locals   []uint16 `cbor:"3,keyasint"`
	Stack    []uint16 `cbor:"4,keyasint"`
}

// Snapshot is the full capture of mutable machine state plus the story
// identity header used to validate restores.
type Snapshot struct {
	StoryID  string  `cbor:"1,keyasint"`
	Release  uint16  `cbor:"2,keyasint"`
	Serial   string  `cbor:"3,keyasint"`
	Checksum uint16  `cbor:"4,keyasint"`
	PC       uint32  `cbor:"5,keyasint"`
	Dynamic  []byte  `cbor:"6,keyasint"`
	Frames   []Frame `cbor:"7,keyasint"`
}

// StoryID derives a stable identifier from a story's header identity.
// The same story always yields the same id, so it never perturbs
// snapshot bytes.
func StoryID(release uint16, serial string, checksum uint16) string {
	name := fmt.Sprintf("fic:%d:%s:%d", release, serial, checksum)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// Matches reports whether the snapshot was taken from the given story.
func (s *Snapshot) Matches(release uint16, serial string, checksum uint16) bool {
	return s.Release == release && s.Serial == serial && s.Checksum == checksum
}

// Marshal serializes the snapshot: magic, format version, canonical CBOR.
func (s *Snapshot) Marshal() ([]byte, error) {
	body, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("zsave: marshal snapshot: %w", err)
	}
	out := make([]byte, 0, len(magic)+1+len(body))
	out = append(out, magic...)
	out = append(out, formatVersion)
	out = append(out, body...)
	return out, nil
}

// Unmarshal parses snapshot bytes, validating the magic and format
// version.
func Unmarshal(data []byte) (*Snapshot, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrBadSnapshotFormat)
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrBadSnapshotFormat, v)
	}
	var s Snapshot
	if err := cbor.Unmarshal(data[len(magic)+1:], &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshotFormat, err)
	}
	return &s, nil
}
