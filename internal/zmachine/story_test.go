package zmachine_test

import (
	"testing"

	"github.com/grue/fic/internal/ztext"
)

// Fixed layout of the synthetic story images the tests assemble. Globals,
// the object table and the input buffers sit in dynamic memory; the
// dictionary and code live above the static boundary.
const (
	imageSize    = 0x800
	staticBase   = 0x400
	globalsAddr  = 0x100
	objTableAddr = 0x200
	textBufAddr  = 0x380
	parseBufAddr = 0x3C0
	dictAddr     = 0x480
	codeStart    = 0x500
)

type patchKind int

const (
	patchBranch patchKind = iota
	patchJump
)

type patch struct {
	at     int
	label  string
	kind   patchKind
	onTrue bool
}

// storyBuilder assembles a version-3 image instruction by instruction,
// with label patching for forward branches.
type storyBuilder struct {
	img     []byte
	pos     int
	labels  map[string]int
	patches []patch
}

func newStory() *storyBuilder {
	b := &storyBuilder{
		img:    make([]byte, imageSize),
		pos:    codeStart,
		labels: map[string]int{},
	}
	img := b.img
	img[0] = 3
	img[0x02], img[0x03] = 0, 1 // release 1
	img[0x06], img[0x07] = codeStart >> 8, codeStart & 0xFF
	img[0x08], img[0x09] = dictAddr >> 8, dictAddr & 0xFF
	img[0x0A], img[0x0B] = objTableAddr >> 8, objTableAddr & 0xFF
	img[0x0C], img[0x0D] = globalsAddr >> 8, globalsAddr & 0xFF
	img[0x0E], img[0x0F] = staticBase >> 8, staticBase & 0xFF
	copy(img[0x12:], "260831")

	img[textBufAddr] = 40
	img[parseBufAddr] = 10

	// Minimal dictionary: one separator, no entries. Tests that need
	// words overwrite it with withDict.
	img[dictAddr] = 1
	img[dictAddr+1] = '.'
	img[dictAddr+2] = 6
	return b
}

func (b *storyBuilder) emit(bs ...byte) *storyBuilder {
	copy(b.img[b.pos:], bs)
	b.pos += len(bs)
	return b
}

func (b *storyBuilder) label(name string) *storyBuilder {
	b.labels[name] = b.pos
	return b
}

// branch emits a two-byte branch specification resolved at build time.
func (b *storyBuilder) branch(label string, onTrue bool) *storyBuilder {
	b.patches = append(b.patches, patch{at: b.pos, label: label, kind: patchBranch, onTrue: onTrue})
	b.pos += 2
	return b
}

// branchRet emits a single-byte branch meaning "return val".
func (b *storyBuilder) branchRet(val byte, onTrue bool) *storyBuilder {
	spec := 0x40 | val
	if onTrue {
		spec |= 0x80
	}
	return b.emit(spec)
}

// jumpTo emits an unconditional jump to a label.
func (b *storyBuilder) jumpTo(label string) *storyBuilder {
	b.emit(0x8C)
	b.patches = append(b.patches, patch{at: b.pos, label: label, kind: patchJump})
	b.pos += 2
	return b
}

// routine aligns to an even address and starts a routine with the given
// local count and initial values.
func (b *storyBuilder) routine(name string, locals ...uint16) *storyBuilder {
	if b.pos%2 != 0 {
		b.pos++
	}
	b.label(name)
	b.emit(byte(len(locals)))
	for _, v := range locals {
		b.emit(byte(v>>8), byte(v))
	}
	return b
}

// packed returns the packed address of a label, for call operands.
func (b *storyBuilder) packed(name string) uint16 {
	addr, ok := b.labels[name]
	if !ok {
		panic("unknown label " + name)
	}
	return uint16(addr / 2)
}

func (b *storyBuilder) printNumVar(v byte) *storyBuilder   { return b.emit(0xE6, 0xBF, v) }
func (b *storyBuilder) printNumConst(n byte) *storyBuilder { return b.emit(0xE6, 0x7F, n) }
func (b *storyBuilder) quit() *storyBuilder                { return b.emit(0xBA) }
func (b *storyBuilder) newLine() *storyBuilder             { return b.emit(0xBB) }

// sread emits a read instruction against the fixed buffers.
func (b *storyBuilder) sread() *storyBuilder {
	return b.emit(0xE4, 0x0F,
		textBufAddr>>8, textBufAddr&0xFF,
		parseBufAddr>>8, parseBufAddr&0xFF)
}

// withObjects installs a two-object tree: 1 "box" containing 2 "coin".
// Object 1 carries property 5 (word 0x1234).
func (b *storyBuilder) withObjects() *storyBuilder {
	img := b.img
	entry := func(obj int) int { return objTableAddr + 62 + (obj-1)*9 }

	e1, e2 := entry(1), entry(2)
	img[e1+6] = 2 // child
	img[e2+4] = 1 // parent

	p1 := 0x2C0
	img[e1+7], img[e1+8] = byte(p1>>8), byte(p1)
	img[p1] = 1 // name "box"
	w := uint16(7)<<10 | uint16(20)<<5 | 29 | 0x8000
	img[p1+1], img[p1+2] = byte(w>>8), byte(w)
	img[p1+3] = 1<<5 | 5 // prop 5, two bytes
	img[p1+4], img[p1+5] = 0x12, 0x34
	img[p1+6] = 0

	p2 := 0x2E0
	img[e2+7], img[e2+8] = byte(p2>>8), byte(p2)
	img[p2] = 2 // name "coin"
	w1 := uint16(8)<<10 | uint16(20)<<5 | 14
	w2 := uint16(19)<<10 | uint16(5)<<5 | 5 | 0x8000
	img[p2+1], img[p2+2] = byte(w1>>8), byte(w1)
	img[p2+3], img[p2+4] = byte(w2>>8), byte(w2)
	img[p2+5] = 0
	return b
}

// withDict replaces the dictionary with the given words, sorted by their
// encoded form as the lookup requires.
func (b *storyBuilder) withDict(words ...string) *storyBuilder {
	encoded := make([][4]byte, len(words))
	for i, w := range words {
		encoded[i] = ztext.EncodeWord(w)
	}
	for i := 1; i < len(encoded); i++ {
		for j := i; j > 0; j-- {
			a, c := encoded[j-1], encoded[j]
			greater := false
			for k := range a {
				if a[k] != c[k] {
					greater = a[k] > c[k]
					break
				}
			}
			if !greater {
				break
			}
			encoded[j-1], encoded[j] = encoded[j], encoded[j-1]
		}
	}

	img := b.img
	img[dictAddr] = 1
	img[dictAddr+1] = '.'
	img[dictAddr+2] = 6
	img[dictAddr+3], img[dictAddr+4] = byte(len(words)>>8), byte(len(words))
	p := dictAddr + 5
	for _, e := range encoded {
		copy(img[p:], e[:])
		p += 6
	}
	return b
}

// build resolves labels and stamps the file length and checksum.
func (b *storyBuilder) build(t *testing.T) []byte {
	t.Helper()
	for _, p := range b.patches {
		target, ok := b.labels[p.label]
		if !ok {
			t.Fatalf("unresolved label %q", p.label)
		}
		offset := target - p.at
		switch p.kind {
		case patchBranch:
			if offset < -8192 || offset > 8191 {
				t.Fatalf("branch to %q out of range: %d", p.label, offset)
			}
			raw := uint16(offset) & 0x3FFF
			b1 := byte(raw >> 8)
			if p.onTrue {
				b1 |= 0x80
			}
			b.img[p.at] = b1
			b.img[p.at+1] = byte(raw)
		case patchJump:
			b.img[p.at] = byte(uint16(offset) >> 8)
			b.img[p.at+1] = byte(uint16(offset))
		}
	}

	// A "main" label overrides the default entry point, so routines can
	// be assembled ahead of the main code.
	if main, ok := b.labels["main"]; ok {
		b.img[0x06], b.img[0x07] = byte(main>>8), byte(main)
	}

	b.img[0x1A], b.img[0x1B] = imageSize / 2 >> 8, imageSize / 2 & 0xFF
	var sum uint16
	for i := 0x40; i < imageSize; i++ {
		sum += uint16(b.img[i])
	}
	b.img[0x1C], b.img[0x1D] = byte(sum>>8), byte(sum)
	return b.img
}
