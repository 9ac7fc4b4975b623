// Package zdict resolves player input against the story's dictionary: a
// sorted table of encoded words with per-entry flag bytes, preceded by the
// separator characters the tokenizer must treat as words of their own.
package zdict

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/grue/fic/internal/zmem"
	"github.com/grue/fic/internal/ztext"
)

// NotFound is the lookup result for a word absent from the dictionary.
// A miss is an ordinary outcome, not an error; the game reacts to it.
const NotFound = 0

// Token is one word of a tokenized input line, with its position in the
// raw line.
type Token struct {
	Text   string
	Start  int
	Length int
}

// Dictionary wraps the dictionary table of a loaded story.
type Dictionary struct {
	m           *zmem.Memory
	separators  []byte
	entryLen    uint32
	count       uint32
	entriesAddr uint32
}

func New(m *zmem.Memory) (*Dictionary, error) {
	addr := m.DictionaryAddr()

	nsep, err := m.Byte(addr)
	if err != nil {
		return nil, fmt.Errorf("dictionary header: %w", err)
	}
	seps := make([]byte, nsep)
	for i := range seps {
		b, err := m.Byte(addr + 1 + uint32(i))
		if err != nil {
			return nil, fmt.Errorf("dictionary separators: %w", err)
		}
		seps[i] = b
	}

	entryLen, err := m.Byte(addr + 1 + uint32(nsep))
	if err != nil {
		return nil, fmt.Errorf("dictionary entry length: %w", err)
	}
	if entryLen < ztext.EncodedLen {
		return nil, fmt.Errorf("dictionary entry length %d too short", entryLen)
	}
	count, err := m.Word(addr + 1 + uint32(nsep) + 1)
	if err != nil {
		return nil, fmt.Errorf("dictionary entry count: %w", err)
	}

	return &Dictionary{
		m:           m,
		separators:  seps,
		entryLen:    uint32(entryLen),
		count:       uint32(count),
		entriesAddr: addr + 1 + uint32(nsep) + 3,
	}, nil
}

// Separators returns the self-delimiting punctuation characters.
func (d *Dictionary) Separators() []byte { return d.separators }

func (d *Dictionary) isSeparator(c byte) bool {
	return bytes.IndexByte(d.separators, c) >= 0
}

// Tokenize splits a raw input line into words. Whitespace delimits and is
// dropped; each separator character is a token of its own. Offsets are
// byte positions in line.
func (d *Dictionary) Tokenize(line string) []Token {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, Token{Text: line[start:end], Start: start, Length: end - start})
			start = -1
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			flush(i)
		case d.isSeparator(c):
			flush(i)
			tokens = append(tokens, Token{Text: line[i : i+1], Start: i, Length: 1})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(line))
	return tokens
}

// Lookup encodes a word and binary-searches the sorted entry table,
// comparing encoded bytes. Returns the entry's byte address, or NotFound.
func (d *Dictionary) Lookup(word string) (uint16, error) {
	encoded := ztext.EncodeWord(strings.ToLower(word))

	lo, hi := uint32(0), d.count
	for lo < hi {
		mid := lo + (hi-lo)/2
		entry := d.entriesAddr + mid*d.entryLen

		var stored [ztext.EncodedLen]byte
		for i := range stored {
			b, err := d.m.Byte(entry + uint32(i))
			if err != nil {
				return 0, fmt.Errorf("dictionary entry %d: %w", mid, err)
			}
			stored[i] = b
		}

		switch bytes.Compare(encoded[:], stored[:]) {
		case 0:
			return uint16(entry), nil
		case -1:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return NotFound, nil
}
