package zdict_test

import (
	"sort"
	"testing"

	"github.com/grue/fic/internal/zdict"
	"github.com/grue/fic/internal/zmem"
	"github.com/grue/fic/internal/ztext"
)

const dictBase = 0x100

// testDict builds an image whose dictionary holds the given words, with
// '.' and ',' as separators. Entries are stored sorted by encoded bytes,
// as the format requires.
func testDict(t *testing.T, words ...string) (*zdict.Dictionary, map[string]uint16) {
	t.Helper()
	img := make([]byte, 1024)
	img[0] = 3
	img[0x0E], img[0x0F] = 0x04, 0x00
	img[0x08], img[0x09] = dictBase >> 8, dictBase & 0xFF

	encoded := make([][4]byte, len(words))
	for i, w := range words {
		encoded[i] = ztext.EncodeWord(w)
	}
	order := make([]int, len(words))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ea, eb := encoded[order[a]], encoded[order[b]]
		for i := range ea {
			if ea[i] != eb[i] {
				return ea[i] < eb[i]
			}
		}
		return false
	})

	p := dictBase
	img[p] = 2
	img[p+1], img[p+2] = '.', ','
	img[p+3] = 6 // entry length: 4 encoded bytes + 2 flag bytes
	img[p+4], img[p+5] = byte(len(words)>>8), byte(len(words))
	p += 6

	addrs := make(map[string]uint16, len(words))
	for _, idx := range order {
		copy(img[p:], encoded[idx][:])
		addrs[words[idx]] = uint16(p)
		p += 6
	}

	m, err := zmem.New(img)
	if err != nil {
		t.Fatalf("New image: %v", err)
	}
	d, err := zdict.New(m)
	if err != nil {
		t.Fatalf("New dictionary: %v", err)
	}
	return d, addrs
}

func TestTokenize(t *testing.T) {
	d, _ := testDict(t, "look")

	cases := []struct {
		line string
		want []zdict.Token
	}{
		{"", nil},
		{"look", []zdict.Token{{Text: "look", Start: 0, Length: 4}}},
		{"  take  lamp ", []zdict.Token{
			{Text: "take", Start: 2, Length: 4},
			{Text: "lamp", Start: 8, Length: 4},
		}},
		{"put coin,lamp in box", []zdict.Token{
			{Text: "put", Start: 0, Length: 3},
			{Text: "coin", Start: 4, Length: 4},
			{Text: ",", Start: 8, Length: 1},
			{Text: "lamp", Start: 9, Length: 4},
			{Text: "in", Start: 14, Length: 2},
			{Text: "box", Start: 17, Length: 3},
		}},
		{".", []zdict.Token{{Text: ".", Start: 0, Length: 1}}},
	}

	for _, c := range cases {
		got := d.Tokenize(c.line)
		if len(got) != len(c.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", c.line, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Tokenize(%q)[%d] = %v, want %v", c.line, i, got[i], c.want[i])
			}
		}
	}
}

func TestLookup(t *testing.T) {
	words := []string{"look", "take", "lamp", "open", "north", "east", "quit"}
	d, addrs := testDict(t, words...)

	for _, w := range words {
		addr, err := d.Lookup(w)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", w, err)
		}
		if addr != addrs[w] {
			t.Fatalf("Lookup(%q) = %#x, want %#x", w, addr, addrs[w])
		}
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	d, addrs := testDict(t, "look")
	addr, err := d.Lookup("LOOK")
	if err != nil || addr != addrs["look"] {
		t.Fatalf("Lookup(LOOK) = %#x, %v; want %#x", addr, err, addrs["look"])
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	d, _ := testDict(t, "look", "take")
	addr, err := d.Lookup("xyzzy")
	if err != nil {
		t.Fatalf("Lookup miss returned error: %v", err)
	}
	if addr != zdict.NotFound {
		t.Fatalf("Lookup miss = %#x, want NotFound", addr)
	}
}

func TestLookupTruncatesLongWords(t *testing.T) {
	// Only the first six z-characters distinguish entries.
	d, addrs := testDict(t, "flashl")
	addr, err := d.Lookup("flashlight")
	if err != nil || addr != addrs["flashl"] {
		t.Fatalf("Lookup(flashlight) = %#x, %v; want %#x", addr, err, addrs["flashl"])
	}
}

func TestSeparators(t *testing.T) {
	d, _ := testDict(t, "look")
	seps := d.Separators()
	if len(seps) != 2 || seps[0] != '.' || seps[1] != ',' {
		t.Fatalf("Separators = %v", seps)
	}
}
