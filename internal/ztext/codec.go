// Package ztext implements the packed text encoding used by version-3
// story files: 3 five-bit z-characters per 16-bit word, three alphabets
// reached through one-shot shift characters, and a two-character
// abbreviation mechanism that substitutes precomputed strings.
package ztext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grue/fic/internal/zmem"
)

var ErrAbbreviationCycle = errors.New("abbreviation expansion too deep")

// The three alphabets. Z-characters 6..31 index into these; the first two
// slots of A2 are placeholders for the ZSCII escape (6) and newline (7),
// which are handled before table lookup.
var alphabets = [3]string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	" \n0123456789.,!?_#'\"/\\-:()",
}

// WordLength is the number of z-characters in an encoded dictionary word.
const WordLength = 6

// EncodedLen is the byte length of an encoded dictionary word.
const EncodedLen = 4

// maxAbbrevDepth bounds recursive abbreviation expansion. Legal story
// files never nest abbreviations; the bound turns a cyclic reference in a
// corrupt file into an error instead of unbounded recursion.
const maxAbbrevDepth = 4

// Decoder reads packed strings out of a memory image, expanding
// abbreviations through the table declared in the header.
type Decoder struct {
	m *zmem.Memory
}

func NewDecoder(m *zmem.Memory) *Decoder {
	return &Decoder{m: m}
}

// Decode reads the packed string at addr and returns the text together
// with the address of the first byte past the terminator word.
func (d *Decoder) Decode(addr uint32) (string, uint32, error) {
	var sb strings.Builder
	next, err := d.decode(addr, 0, &sb)
	if err != nil {
		return "", 0, err
	}
	return sb.String(), next, nil
}

func (d *Decoder) decode(addr uint32, depth int, sb *strings.Builder) (uint32, error) {
	if depth >= maxAbbrevDepth {
		return 0, fmt.Errorf("%w: depth %d at 0x%X", ErrAbbreviationCycle, depth, addr)
	}

	var zchars []byte
	i := addr
	for {
		w, err := d.m.Word(i)
		if err != nil {
			return 0, err
		}
		i += 2
		zchars = append(zchars, byte(w>>10)&0x1F, byte(w>>5)&0x1F, byte(w)&0x1F)
		if w&0x8000 != 0 {
			break
		}
	}

	alphabet := 0
	for j := 0; j < len(zchars); j++ {
		zc := zchars[j]
		switch {
		case zc == 0:
			sb.WriteByte(' ')
			alphabet = 0

		case zc <= 3:
			// Abbreviation: entry 32(z-1)+x of the table.
			if j+1 >= len(zchars) {
				break // truncated pair at the end of the string
			}
			x := zchars[j+1]
			j++
			entry := d.m.AbbreviationsAddr() + uint32(32*(zc-1)+x)*2
			wordAddr, err := d.m.Word(entry)
			if err != nil {
				return 0, err
			}
			if _, err := d.decode(zmem.WordAddr(wordAddr), depth+1, sb); err != nil {
				return 0, err
			}
			alphabet = 0

		case zc == 4 || zc == 5:
			// One-shot shift for the next character only.
			alphabet = int(zc) - 3

		case alphabet == 2 && zc == 6:
			// Ten-bit ZSCII literal from the next two z-characters.
			if j+2 >= len(zchars) {
				alphabet = 0
				break
			}
			code := uint16(zchars[j+1])<<5 | uint16(zchars[j+2])
			j += 2
			sb.WriteString(ZSCII(code))
			alphabet = 0

		default:
			sb.WriteByte(alphabets[alphabet][zc-6])
			alphabet = 0
		}
	}

	return i, nil
}

// EncodeWord packs a word for dictionary lookup: six z-characters in two
// words, padded with z-character 5, the terminator bit on the final word.
// Characters beyond the sixth are silently dropped, matching how the
// parser truncates long words rather than rejecting them.
func EncodeWord(word string) [EncodedLen]byte {
	zchars := make([]byte, 0, WordLength)

	for i := 0; i < len(word) && len(zchars) < WordLength; i++ {
		c := word[i]
		if idx := strings.IndexByte(alphabets[0], c); idx >= 0 {
			zchars = append(zchars, byte(idx+6))
			continue
		}
		if idx := strings.IndexByte(alphabets[1], c); idx >= 0 {
			zchars = append(zchars, 4, byte(idx+6))
			continue
		}
		// Skip the escape/newline placeholder slots when searching A2.
		if idx := strings.IndexByte(alphabets[2][2:], c); idx >= 0 {
			zchars = append(zchars, 5, byte(idx+2+6))
			continue
		}
		// Ten-bit ZSCII escape.
		zchars = append(zchars, 5, 6, c>>5, c&0x1F)
	}

	for len(zchars) < WordLength {
		zchars = append(zchars, 5)
	}
	zchars = zchars[:WordLength]

	var out [EncodedLen]byte
	for i := 0; i < 2; i++ {
		w := uint16(zchars[i*3])<<10 | uint16(zchars[i*3+1])<<5 | uint16(zchars[i*3+2])
		if i == 1 {
			w |= 0x8000
		}
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w)
	}
	return out
}
