// Package zobject implements the object table: a forest of numbered
// objects carrying attribute bitsets and property lists, linked through
// parent/sibling/child ids stored directly in the memory image.
package zobject

import (
	"errors"
	"fmt"

	"github.com/grue/fic/internal/zmem"
	"github.com/grue/fic/internal/ztext"
)

var (
	ErrInvalidObject    = errors.New("invalid object id")
	ErrInvalidAttribute = errors.New("invalid attribute number")
	ErrInvalidProperty  = errors.New("invalid property number")
)

// Version-3 table geometry: 31 property defaults precede 9-byte object
// entries. Object ids are 1-based; 0 means "no object".
const (
	MaxObjects    = 255
	AttrCount     = 32
	PropCount     = 31
	entrySize     = 9
	parentOffset  = 4
	siblingOffset = 5
	childOffset   = 6
	propsOffset   = 7
)

// Table reads and mutates the object table in place.
type Table struct {
	m    *zmem.Memory
	dec  *ztext.Decoder
	base uint32
}

func New(m *zmem.Memory, dec *ztext.Decoder) *Table {
	return &Table{m: m, dec: dec, base: m.ObjectTableAddr()}
}

func (t *Table) entryAddr(obj uint16) (uint32, error) {
	if obj == 0 || obj > MaxObjects {
		return 0, fmt.Errorf("%w: %d", ErrInvalidObject, obj)
	}
	return t.base + PropCount*2 + uint32(obj-1)*entrySize, nil
}

// Default returns the table-wide default value for property n.
func (t *Table) Default(n uint16) (uint16, error) {
	if n == 0 || n > PropCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidProperty, n)
	}
	return t.m.Word(t.base + uint32(n-1)*2)
}

// Attr reports whether attribute n is set on obj. Attribute 0 is the top
// bit of the first attribute byte.
func (t *Table) Attr(obj, n uint16) (bool, error) {
	addr, mask, err := t.attrLoc(obj, n)
	if err != nil {
		return false, err
	}
	b, err := t.m.Byte(addr)
	if err != nil {
		return false, err
	}
	return b&mask != 0, nil
}

func (t *Table) SetAttr(obj, n uint16) error {
	addr, mask, err := t.attrLoc(obj, n)
	if err != nil {
		return err
	}
	b, err := t.m.Byte(addr)
	if err != nil {
		return err
	}
	return t.m.SetByte(addr, b|mask)
}

func (t *Table) ClearAttr(obj, n uint16) error {
	addr, mask, err := t.attrLoc(obj, n)
	if err != nil {
		return err
	}
	b, err := t.m.Byte(addr)
	if err != nil {
		return err
	}
	return t.m.SetByte(addr, b&^mask)
}

func (t *Table) attrLoc(obj, n uint16) (uint32, byte, error) {
	if n >= AttrCount {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidAttribute, n)
	}
	addr, err := t.entryAddr(obj)
	if err != nil {
		return 0, 0, err
	}
	return addr + uint32(n/8), 1 << (7 - n%8), nil
}

func (t *Table) relation(obj uint16, offset uint32) (uint16, error) {
	addr, err := t.entryAddr(obj)
	if err != nil {
		return 0, err
	}
	b, err := t.m.Byte(addr + offset)
	if err != nil {
		return 0, err
	}
	return uint16(b), nil
}

func (t *Table) setRelation(obj uint16, offset uint32, v uint16) error {
	addr, err := t.entryAddr(obj)
	if err != nil {
		return err
	}
	return t.m.SetByte(addr+offset, byte(v))
}

func (t *Table) Parent(obj uint16) (uint16, error)  { return t.relation(obj, parentOffset) }
func (t *Table) Sibling(obj uint16) (uint16, error) { return t.relation(obj, siblingOffset) }
func (t *Table) Child(obj uint16) (uint16, error)   { return t.relation(obj, childOffset) }

// Remove detaches obj from its parent's child chain, leaving it
// parentless. Its own children stay attached.
func (t *Table) Remove(obj uint16) error {
	parent, err := t.Parent(obj)
	if err != nil {
		return err
	}
	if parent == 0 {
		return nil
	}

	sibling, err := t.Sibling(obj)
	if err != nil {
		return err
	}
	first, err := t.Child(parent)
	if err != nil {
		return err
	}

	if first == obj {
		if err := t.setRelation(parent, childOffset, sibling); err != nil {
			return err
		}
	} else {
		// Walk the sibling chain to the predecessor and splice around obj.
		prev := first
		for {
			next, err := t.Sibling(prev)
			if err != nil {
				return err
			}
			if next == obj {
				break
			}
			if next == 0 {
				return fmt.Errorf("%w: object %d not on parent %d child chain",
					ErrInvalidObject, obj, parent)
			}
			prev = next
		}
		if err := t.setRelation(prev, siblingOffset, sibling); err != nil {
			return err
		}
	}

	if err := t.setRelation(obj, siblingOffset, 0); err != nil {
		return err
	}
	return t.setRelation(obj, parentOffset, 0)
}

// Insert moves obj to be the first child of dest. Inserting into object 0
// is equivalent to Remove.
func (t *Table) Insert(obj, dest uint16) error {
	if obj == dest {
		return fmt.Errorf("%w: object %d cannot contain itself", ErrInvalidObject, obj)
	}
	if err := t.Remove(obj); err != nil {
		return err
	}
	if dest == 0 {
		return nil
	}
	first, err := t.Child(dest)
	if err != nil {
		return err
	}
	if err := t.setRelation(obj, siblingOffset, first); err != nil {
		return err
	}
	if err := t.setRelation(dest, childOffset, obj); err != nil {
		return err
	}
	return t.setRelation(obj, parentOffset, dest)
}

// propList returns the address of the first property size byte.
func (t *Table) propList(obj uint16) (uint32, error) {
	addr, err := t.entryAddr(obj)
	if err != nil {
		return 0, err
	}
	props, err := t.m.Word(addr + propsOffset)
	if err != nil {
		return 0, err
	}
	nameWords, err := t.m.Byte(uint32(props))
	if err != nil {
		return 0, err
	}
	return uint32(props) + 1 + uint32(nameWords)*2, nil
}

// find locates property n on obj. Properties are stored in descending
// number order, so the scan stops early on a smaller number. Returns the
// data address and width, or 0,0 when absent.
func (t *Table) find(obj, n uint16) (uint32, uint16, error) {
	p, err := t.propList(obj)
	if err != nil {
		return 0, 0, err
	}
	for {
		size, err := t.m.Byte(p)
		if err != nil {
			return 0, 0, err
		}
		if size == 0 {
			return 0, 0, nil
		}
		num := uint16(size & 0x1F)
		width := uint16(size>>5) + 1
		if num < n {
			return 0, 0, nil
		}
		if num == n {
			return p + 1, width, nil
		}
		p += 1 + uint32(width)
	}
}

// Prop returns the value of property n, falling back to the table-wide
// default when obj does not carry it. Only one- and two-byte properties
// have a word value.
func (t *Table) Prop(obj, n uint16) (uint16, error) {
	if n == 0 || n > PropCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidProperty, n)
	}
	addr, width, err := t.find(obj, n)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return t.Default(n)
	}
	switch width {
	case 1:
		b, err := t.m.Byte(addr)
		return uint16(b), err
	case 2:
		return t.m.Word(addr)
	default:
		return 0, fmt.Errorf("%w: property %d of object %d is %d bytes",
			ErrInvalidProperty, n, obj, width)
	}
}

// SetProp writes property n. Writing a property the object does not carry
// is a fatal table error in this format.
func (t *Table) SetProp(obj, n, v uint16) error {
	if n == 0 || n > PropCount {
		return fmt.Errorf("%w: %d", ErrInvalidProperty, n)
	}
	addr, width, err := t.find(obj, n)
	if err != nil {
		return err
	}
	if addr == 0 {
		return fmt.Errorf("%w: object %d has no property %d", ErrInvalidProperty, obj, n)
	}
	switch width {
	case 1:
		return t.m.SetByte(addr, byte(v))
	case 2:
		return t.m.SetWord(addr, v)
	default:
		return fmt.Errorf("%w: property %d of object %d is %d bytes",
			ErrInvalidProperty, n, obj, width)
	}
}

// PropAddr returns the data address of property n, or 0 when absent.
func (t *Table) PropAddr(obj, n uint16) (uint16, error) {
	if n == 0 || n > PropCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidProperty, n)
	}
	addr, _, err := t.find(obj, n)
	if err != nil {
		return 0, err
	}
	return uint16(addr), nil
}

// PropLen returns the width in bytes of the property whose data starts at
// dataAddr, read from the size byte immediately before it. Address 0
// yields 0, matching the opcode contract.
func (t *Table) PropLen(dataAddr uint16) (uint16, error) {
	if dataAddr == 0 {
		return 0, nil
	}
	size, err := t.m.Byte(uint32(dataAddr) - 1)
	if err != nil {
		return 0, err
	}
	return uint16(size>>5) + 1, nil
}

// NextProp supports property iteration: n of 0 yields the first property
// number, the last property yields 0.
func (t *Table) NextProp(obj, n uint16) (uint16, error) {
	if n == 0 {
		p, err := t.propList(obj)
		if err != nil {
			return 0, err
		}
		size, err := t.m.Byte(p)
		if err != nil {
			return 0, err
		}
		return uint16(size & 0x1F), nil
	}
	addr, width, err := t.find(obj, n)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: object %d has no property %d", ErrInvalidProperty, obj, n)
	}
	size, err := t.m.Byte(addr + uint32(width))
	if err != nil {
		return 0, err
	}
	return uint16(size & 0x1F), nil
}

// NameAddr returns the address of the object's short-name string.
func (t *Table) NameAddr(obj uint16) (uint32, error) {
	addr, err := t.entryAddr(obj)
	if err != nil {
		return 0, err
	}
	props, err := t.m.Word(addr + propsOffset)
	if err != nil {
		return 0, err
	}
	return uint32(props) + 1, nil
}

// Name decodes the object's short name. Objects with an empty name yield
// the empty string.
func (t *Table) Name(obj uint16) (string, error) {
	addr, err := t.entryAddr(obj)
	if err != nil {
		return "", err
	}
	props, err := t.m.Word(addr + propsOffset)
	if err != nil {
		return "", err
	}
	nameWords, err := t.m.Byte(uint32(props))
	if err != nil {
		return "", err
	}
	if nameWords == 0 {
		return "", nil
	}
	name, _, err := t.dec.Decode(uint32(props) + 1)
	return name, err
}
