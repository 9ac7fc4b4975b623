// Package zmem implements the byte-addressable memory image of a loaded
// story file.
//
// The image is split at the static-memory boundary declared in the header:
// addresses below it are writable by the running game, addresses at or above
// it are read-only after load. Three address forms exist: plain byte
// addresses, word addresses (table entries stored as address/2) and packed
// routine/string addresses (address/2 in the version-3 format). Callers
// convert with WordAddr/PackedAddr before accessing memory.
package zmem

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds        = errors.New("memory access out of bounds")
	ErrWriteProtected     = errors.New("write above static memory boundary")
	ErrUnsupportedVersion = errors.New("unsupported story file version")
	ErrImageTooSmall      = errors.New("story image smaller than header")
)

// HeaderSize is the fixed size of the story file header.
const HeaderSize = 64

// Header field offsets for the version-3 format.
const (
	hdrVersion       = 0x00
	hdrFlags1        = 0x01
	hdrRelease       = 0x02
	hdrHighMemBase   = 0x04
	hdrInitialPC     = 0x06
	hdrDictionary    = 0x08
	hdrObjectTable   = 0x0A
	hdrGlobals       = 0x0C
	hdrStaticBase    = 0x0E
	hdrFlags2        = 0x10
	hdrSerial        = 0x12
	hdrAbbreviations = 0x18
	hdrFileLength    = 0x1A
	hdrChecksum      = 0x1C
)

// Version is the story format this interpreter targets.
const Version = 3

// Memory is the loaded story image.
type Memory struct {
	buf        []byte
	staticBase uint32
}

// New validates the image header and wraps the buffer. The buffer is owned
// by the returned Memory; callers must not alias it afterwards.
func New(image []byte) (*Memory, error) {
	if len(image) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooSmall, len(image))
	}
	if image[hdrVersion] != Version {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, image[hdrVersion])
	}
	m := &Memory{buf: image}
	m.staticBase = uint32(m.word(hdrStaticBase))
	if m.staticBase > uint32(len(image)) {
		m.staticBase = uint32(len(image))
	}
	if m.staticBase < HeaderSize {
		return nil, fmt.Errorf("%w: static base 0x%X inside header", ErrImageTooSmall, m.staticBase)
	}
	return m, nil
}

// word reads a big-endian word without bounds checking. Internal use only,
// for offsets already validated against the image size.
func (m *Memory) word(addr uint32) uint16 {
	return uint16(m.buf[addr])<<8 | uint16(m.buf[addr+1])
}

// Byte reads the byte at addr.
func (m *Memory) Byte(addr uint32) (byte, error) {
	if addr >= uint32(len(m.buf)) {
		return 0, fmt.Errorf("%w: read byte at 0x%X", ErrOutOfBounds, addr)
	}
	return m.buf[addr], nil
}

// Word reads the big-endian word at addr.
func (m *Memory) Word(addr uint32) (uint16, error) {
	if addr+1 >= uint32(len(m.buf)) {
		return 0, fmt.Errorf("%w: read word at 0x%X", ErrOutOfBounds, addr)
	}
	return m.word(addr), nil
}

// SetByte writes a byte into dynamic memory.
func (m *Memory) SetByte(addr uint32, v byte) error {
	if addr >= uint32(len(m.buf)) {
		return fmt.Errorf("%w: write byte at 0x%X", ErrOutOfBounds, addr)
	}
	if addr >= m.staticBase {
		return fmt.Errorf("%w: write byte at 0x%X (static base 0x%X)", ErrWriteProtected, addr, m.staticBase)
	}
	m.buf[addr] = v
	return nil
}

// SetWord writes a big-endian word into dynamic memory.
func (m *Memory) SetWord(addr uint32, v uint16) error {
	if addr+1 >= uint32(len(m.buf)) {
		return fmt.Errorf("%w: write word at 0x%X", ErrOutOfBounds, addr)
	}
	if addr+1 >= m.staticBase {
		return fmt.Errorf("%w: write word at 0x%X (static base 0x%X)", ErrWriteProtected, addr, m.staticBase)
	}
	m.buf[addr] = byte(v >> 8)
	m.buf[addr+1] = byte(v)
	return nil
}

// Size returns the image length in bytes.
func (m *Memory) Size() uint32 { return uint32(len(m.buf)) }

// StaticBase returns the first write-protected address.
func (m *Memory) StaticBase() uint32 { return m.staticBase }

// WordAddr converts a word address to a byte address.
func WordAddr(a uint16) uint32 { return uint32(a) * 2 }

// PackedAddr converts a packed routine/string address to a byte address.
// Version 3 packs at a factor of 2 with no base offset.
func PackedAddr(a uint16) uint32 { return uint32(a) * 2 }

// Header accessors. The header always fits inside the image (checked in
// New), so these cannot fault.

func (m *Memory) VersionByte() byte     { return m.buf[hdrVersion] }
func (m *Memory) Flags1() byte          { return m.buf[hdrFlags1] }
func (m *Memory) Release() uint16       { return m.word(hdrRelease) }
func (m *Memory) HighMemBase() uint32   { return uint32(m.word(hdrHighMemBase)) }
func (m *Memory) InitialPC() uint32     { return uint32(m.word(hdrInitialPC)) }
func (m *Memory) DictionaryAddr() uint32 { return uint32(m.word(hdrDictionary)) }
func (m *Memory) ObjectTableAddr() uint32 { return uint32(m.word(hdrObjectTable)) }
func (m *Memory) GlobalsAddr() uint32   { return uint32(m.word(hdrGlobals)) }
func (m *Memory) AbbreviationsAddr() uint32 { return uint32(m.word(hdrAbbreviations)) }
func (m *Memory) Flags2() uint16        { return m.word(hdrFlags2) }
func (m *Memory) Checksum() uint16      { return m.word(hdrChecksum) }

// SetFlags2 rewrites the Flags2 header word. The header sits in dynamic
// memory, so the usual write path applies.
func (m *Memory) SetFlags2(v uint16) error { return m.SetWord(hdrFlags2, v) }

// Serial returns the six-character serial stamp from the header.
func (m *Memory) Serial() string {
	return string(m.buf[hdrSerial : hdrSerial+6])
}

// FileLength returns the declared story length in bytes. Version 3 stores
// it divided by 2. A zero field (common in test images) means the whole
// buffer.
func (m *Memory) FileLength() uint32 {
	n := uint32(m.word(hdrFileLength)) * 2
	if n == 0 || n > uint32(len(m.buf)) {
		return uint32(len(m.buf))
	}
	return n
}

// VerifyChecksum recomputes the file sum: all bytes from the end of the
// header to the declared file length, mod 0x10000. Callers pass the
// pristine image since dynamic memory mutates during play.
func (m *Memory) VerifyChecksum() bool {
	var sum uint16
	end := m.FileLength()
	for i := uint32(HeaderSize); i < end; i++ {
		sum += uint16(m.buf[i])
	}
	return sum == m.Checksum()
}

// DynamicSnapshot copies out the dynamic memory region.
func (m *Memory) DynamicSnapshot() []byte {
	snap := make([]byte, m.staticBase)
	copy(snap, m.buf[:m.staticBase])
	return snap
}

// RestoreDynamic replaces the dynamic region wholesale. The snapshot must
// be exactly the dynamic size of this image.
func (m *Memory) RestoreDynamic(snap []byte) error {
	if uint32(len(snap)) != m.staticBase {
		return fmt.Errorf("%w: snapshot is %d bytes, dynamic region is %d",
			ErrOutOfBounds, len(snap), m.staticBase)
	}
	copy(m.buf[:m.staticBase], snap)
	return nil
}
