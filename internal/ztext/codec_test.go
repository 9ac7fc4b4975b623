package ztext_test

import (
	"errors"
	"testing"

	"github.com/grue/fic/internal/zmem"
	"github.com/grue/fic/internal/ztext"
)

// packZ packs z-characters into big-endian words, three per word, with
// the terminator bit on the final word. The count is padded to a
// multiple of three with shift-5 characters, which decode to nothing.
func packZ(zchars ...byte) []byte {
	for len(zchars)%3 != 0 {
		zchars = append(zchars, 5)
	}
	var out []byte
	for i := 0; i < len(zchars); i += 3 {
		w := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 == len(zchars) {
			w |= 0x8000
		}
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

// textImage builds an image with an abbreviation table at 0x80 and room
// for strings above 0xA0.
func textImage(t *testing.T) ([]byte, *zmem.Memory) {
	t.Helper()
	img := make([]byte, 512)
	img[0] = 3
	img[0x0E] = 0
	img[0x0F] = 64 // static base right after the header
	img[0x18] = 0
	img[0x19] = 0x80 // abbreviations
	m, err := zmem.New(img)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return img, m
}

func decodeAt(t *testing.T, m *zmem.Memory, addr uint32) string {
	t.Helper()
	s, _, err := ztext.NewDecoder(m).Decode(addr)
	if err != nil {
		t.Fatalf("Decode(0x%X): %v", addr, err)
	}
	return s
}

func TestDecodeLowercase(t *testing.T) {
	img, m := textImage(t)
	// "hello" in A0: h=13 e=10 l=17 l=17 o=20
	copy(img[0xC0:], packZ(13, 10, 17, 17, 20))
	if got := decodeAt(t, m, 0xC0); got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestDecodeSpaceAndShifts(t *testing.T) {
	img, m := textImage(t)
	// "Hi 4!": shift-4 H, i, space, shift-5 digit 4, shift-5 '!'
	copy(img[0xC0:], packZ(4, 13, 14, 0, 5, 12, 5, 20))
	if got := decodeAt(t, m, 0xC0); got != "Hi 4!" {
		t.Fatalf("got %q, want %q", got, "Hi 4!")
	}
}

func TestShiftIsOneShot(t *testing.T) {
	img, m := textImage(t)
	// Shift-4 applies to exactly one character: "Ab"
	copy(img[0xC0:], packZ(4, 6, 7))
	if got := decodeAt(t, m, 0xC0); got != "Ab" {
		t.Fatalf("got %q, want %q", got, "Ab")
	}
}

func TestDecodeNewline(t *testing.T) {
	img, m := textImage(t)
	// A2 character 7 is newline: "a\nb"
	copy(img[0xC0:], packZ(6, 5, 7, 7))
	if got := decodeAt(t, m, 0xC0); got != "a\nb" {
		t.Fatalf("got %q, want %q", got, "a\nb")
	}
}

func TestDecodeZSCIIEscape(t *testing.T) {
	img, m := textImage(t)
	// Shift-5 then 6 introduces a ten-bit literal; '@' is 64 = 2<<5|0.
	copy(img[0xC0:], packZ(5, 6, 2, 0))
	if got := decodeAt(t, m, 0xC0); got != "@" {
		t.Fatalf("got %q, want %q", got, "@")
	}
}

func TestDecodeAbbreviation(t *testing.T) {
	img, m := textImage(t)
	// Abbreviation 0 expands to "zork"; the table stores word addresses.
	copy(img[0xA0:], packZ(31, 20, 23, 16))
	img[0x80], img[0x81] = 0x00, 0x50 // 0xA0/2

	// "say zork now" spelled as: say, space, abbrev(1,0), space, now
	copy(img[0xC0:], packZ(24, 6, 30, 0, 1, 0, 0, 19, 20, 28))
	if got := decodeAt(t, m, 0xC0); got != "say zork now" {
		t.Fatalf("got %q, want %q", got, "say zork now")
	}
}

func TestAbbreviationCycleFails(t *testing.T) {
	img, m := textImage(t)
	// Abbreviation 0 expands to a string that invokes abbreviation 0.
	copy(img[0xA0:], packZ(1, 0))
	img[0x80], img[0x81] = 0x00, 0x50

	copy(img[0xC0:], packZ(1, 0))
	_, _, err := ztext.NewDecoder(m).Decode(0xC0)
	if !errors.Is(err, ztext.ErrAbbreviationCycle) {
		t.Fatalf("got %v, want ErrAbbreviationCycle", err)
	}
}

func TestDecodeReturnsNextAddress(t *testing.T) {
	img, m := textImage(t)
	copy(img[0xC0:], packZ(13, 10, 17, 17, 20)) // two words
	_, next, err := ztext.NewDecoder(m).Decode(0xC0)
	if err != nil {
		t.Fatal(err)
	}
	if next != 0xC4 {
		t.Fatalf("next = 0x%X, want 0xC4", next)
	}
}

func TestEncodeWordBasic(t *testing.T) {
	got := ztext.EncodeWord("hello")
	want := [4]byte{0x35, 0x51, 0xC6, 0x85}
	if got != want {
		t.Fatalf("EncodeWord(hello) = %#v, want %#v", got, want)
	}
}

func TestEncodeWordPadsShort(t *testing.T) {
	// "go" is g, o, then four pad characters.
	got := ztext.EncodeWord("go")
	w1 := uint16(12)<<10 | uint16(20)<<5 | 5
	w2 := uint16(5)<<10 | uint16(5)<<5 | 5 | 0x8000
	want := [4]byte{byte(w1 >> 8), byte(w1), byte(w2 >> 8), byte(w2)}
	if got != want {
		t.Fatalf("EncodeWord(go) = %#v, want %#v", got, want)
	}
}

func TestEncodeWordTruncates(t *testing.T) {
	if ztext.EncodeWord("northwest") != ztext.EncodeWord("northw") {
		t.Fatal("words beyond six z-characters should compare equal")
	}
}

func TestEncodeDigitsUseA2(t *testing.T) {
	// '7' is A2 slot 9, encoded as shift-5 then 9+6.
	got := ztext.EncodeWord("7")
	w1 := uint16(5)<<10 | uint16(15)<<5 | 5
	if uint16(got[0])<<8|uint16(got[1]) != w1 {
		t.Fatalf("EncodeWord(7) first word = %#x, want %#x", uint16(got[0])<<8|uint16(got[1]), w1)
	}
}

func TestZSCII(t *testing.T) {
	cases := []struct {
		code uint16
		want string
	}{
		{13, "\n"},
		{10, "\n"},
		{9, " "},
		{65, "A"},
		{126, "~"},
		{155, "ä"},
		{5, ""},
		{127, ""},
		{500, ""},
	}
	for _, c := range cases {
		if got := ztext.ZSCII(c.code); got != c.want {
			t.Fatalf("ZSCII(%d) = %q, want %q", c.code, got, c.want)
		}
	}
}
