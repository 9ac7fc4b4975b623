package zmem_test

import (
	"errors"
	"testing"

	"github.com/grue/fic/internal/zmem"
)

// newImage builds a minimal valid version-3 image: header plus pad bytes
// of dynamic memory with the static boundary at staticBase.
func newImage(size int, staticBase uint16) []byte {
	img := make([]byte, size)
	img[0] = 3
	img[0x0E] = byte(staticBase >> 8)
	img[0x0F] = byte(staticBase)
	return img
}

func mustNew(t *testing.T, img []byte) *zmem.Memory {
	t.Helper()
	m, err := zmem.New(img)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewRejectsShortImage(t *testing.T) {
	_, err := zmem.New(make([]byte, 63))
	if !errors.Is(err, zmem.ErrImageTooSmall) {
		t.Fatalf("got %v, want ErrImageTooSmall", err)
	}
}

func TestNewRejectsWrongVersion(t *testing.T) {
	for _, v := range []byte{0, 1, 2, 4, 5, 8} {
		img := newImage(128, 64)
		img[0] = v
		if _, err := zmem.New(img); !errors.Is(err, zmem.ErrUnsupportedVersion) {
			t.Fatalf("version %d: got %v, want ErrUnsupportedVersion", v, err)
		}
	}
}

func TestByteAndWordAccess(t *testing.T) {
	img := newImage(128, 128)
	img[100] = 0xAB
	img[101] = 0xCD
	m := mustNew(t, img)

	b, err := m.Byte(100)
	if err != nil || b != 0xAB {
		t.Fatalf("Byte(100) = %#x, %v", b, err)
	}
	w, err := m.Word(100)
	if err != nil || w != 0xABCD {
		t.Fatalf("Word(100) = %#x, %v", w, err)
	}

	if _, err := m.Byte(128); !errors.Is(err, zmem.ErrOutOfBounds) {
		t.Fatalf("Byte past end: got %v, want ErrOutOfBounds", err)
	}
	if _, err := m.Word(127); !errors.Is(err, zmem.ErrOutOfBounds) {
		t.Fatalf("Word straddling end: got %v, want ErrOutOfBounds", err)
	}
}

func TestWriteProtection(t *testing.T) {
	m := mustNew(t, newImage(128, 100))

	if err := m.SetByte(99, 1); err != nil {
		t.Fatalf("write below static base: %v", err)
	}
	if err := m.SetByte(100, 1); !errors.Is(err, zmem.ErrWriteProtected) {
		t.Fatalf("write at static base: got %v, want ErrWriteProtected", err)
	}
	// A word write needs both bytes inside dynamic memory.
	if err := m.SetWord(99, 0xFFFF); !errors.Is(err, zmem.ErrWriteProtected) {
		t.Fatalf("word straddling static base: got %v, want ErrWriteProtected", err)
	}
	if err := m.SetWord(98, 0x1234); err != nil {
		t.Fatalf("word below static base: %v", err)
	}
	w, _ := m.Word(98)
	if w != 0x1234 {
		t.Fatalf("readback = %#x, want 0x1234", w)
	}
}

func TestHeaderAccessors(t *testing.T) {
	img := newImage(256, 128)
	img[0x02], img[0x03] = 0x00, 0x58 // release 88
	img[0x06], img[0x07] = 0x00, 0x80 // initial pc
	img[0x0C], img[0x0D] = 0x00, 0x40 // globals
	copy(img[0x12:], "840726")
	m := mustNew(t, img)

	if m.Release() != 88 {
		t.Fatalf("Release = %d", m.Release())
	}
	if m.InitialPC() != 0x80 {
		t.Fatalf("InitialPC = %#x", m.InitialPC())
	}
	if m.GlobalsAddr() != 0x40 {
		t.Fatalf("GlobalsAddr = %#x", m.GlobalsAddr())
	}
	if m.Serial() != "840726" {
		t.Fatalf("Serial = %q", m.Serial())
	}
	if m.StaticBase() != 128 {
		t.Fatalf("StaticBase = %d", m.StaticBase())
	}
}

func TestPackedAddr(t *testing.T) {
	if got := zmem.PackedAddr(0x1234); got != 0x2468 {
		t.Fatalf("PackedAddr = %#x, want 0x2468", got)
	}
	if got := zmem.WordAddr(0x10); got != 0x20 {
		t.Fatalf("WordAddr = %#x, want 0x20", got)
	}
}

func TestFileLengthFallback(t *testing.T) {
	img := newImage(200, 128)
	m := mustNew(t, img)
	if m.FileLength() != 200 {
		t.Fatalf("zero header length should fall back to buffer size, got %d", m.FileLength())
	}

	img2 := newImage(200, 128)
	img2[0x1A], img2[0x1B] = 0, 50 // stored as length/2
	m2 := mustNew(t, img2)
	if m2.FileLength() != 100 {
		t.Fatalf("FileLength = %d, want 100", m2.FileLength())
	}
}

func TestVerifyChecksum(t *testing.T) {
	img := newImage(200, 128)
	img[0x1A], img[0x1B] = 0, 100 // file length 200
	for i := 64; i < 200; i++ {
		img[i] = byte(i)
	}
	var sum uint16
	for i := 64; i < 200; i++ {
		sum += uint16(img[i])
	}
	img[0x1C] = byte(sum >> 8)
	img[0x1D] = byte(sum)

	m := mustNew(t, img)
	if !m.VerifyChecksum() {
		t.Fatal("checksum should verify")
	}

	img[150] ^= 0xFF
	m2 := mustNew(t, img)
	if m2.VerifyChecksum() {
		t.Fatal("corrupted image should not verify")
	}
}

func TestDynamicSnapshotRoundTrip(t *testing.T) {
	m := mustNew(t, newImage(128, 100))
	if err := m.SetByte(80, 0x42); err != nil {
		t.Fatal(err)
	}
	snap := m.DynamicSnapshot()
	if len(snap) != 100 {
		t.Fatalf("snapshot length = %d, want 100", len(snap))
	}

	if err := m.SetByte(80, 0x99); err != nil {
		t.Fatal(err)
	}
	if err := m.RestoreDynamic(snap); err != nil {
		t.Fatalf("RestoreDynamic: %v", err)
	}
	b, _ := m.Byte(80)
	if b != 0x42 {
		t.Fatalf("restored byte = %#x, want 0x42", b)
	}

	if err := m.RestoreDynamic(snap[:50]); err == nil {
		t.Fatal("wrong-size snapshot should be rejected")
	}
}
