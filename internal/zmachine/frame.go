package zmachine

import (
	"fmt"

	"github.com/grue/fic/internal/zmem"
)

// frame is one routine activation: the return address, the store target
// for the routine's result, up to 15 locals, and a private evaluation
// stack region. The bottom frame belongs to the story's main execution
// and has no caller.
type frame struct {
	retPC  uint32
	store  byte
	locals []uint16
	stack  []uint16
}

func (f *frame) push(v uint16) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (uint16, error) {
	if len(f.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) top() (uint16, error) {
	if len(f.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	return f.stack[len(f.stack)-1], nil
}

func (f *frame) setTop(v uint16) error {
	if len(f.stack) == 0 {
		return ErrStackUnderflow
	}
	f.stack[len(f.stack)-1] = v
	return nil
}

func (f *frame) local(i int) (uint16, error) {
	if i < 0 || i >= len(f.locals) {
		return 0, fmt.Errorf("%w: local %d of %d", ErrCorruptRoutine, i+1, len(f.locals))
	}
	return f.locals[i], nil
}

func (f *frame) setLocal(i int, v uint16) error {
	if i < 0 || i >= len(f.locals) {
		return fmt.Errorf("%w: local %d of %d", ErrCorruptRoutine, i+1, len(f.locals))
	}
	f.locals[i] = v
	return nil
}

func (m *Machine) topFrame() *frame {
	return &m.frames[len(m.frames)-1]
}

// callRoutine invokes the routine at a packed address. Locals start from
// the values in the routine header, then arguments overwrite them in
// order. Calling address 0 stores false without creating a frame.
func (m *Machine) callRoutine(packed uint16, args []uint16) error {
	store, err := m.readStoreVar()
	if err != nil {
		return err
	}
	if packed == 0 {
		return m.storeVar(store, 0)
	}
	if len(m.frames) >= maxFrames {
		return fmt.Errorf("call depth exceeds %d frames", maxFrames)
	}

	addr := zmem.PackedAddr(packed)
	nlocals, err := m.mem.Byte(addr)
	if err != nil {
		return err
	}
	if nlocals > 15 {
		return fmt.Errorf("%w: %d locals at 0x%X", ErrCorruptRoutine, nlocals, addr)
	}

	locals := make([]uint16, nlocals)
	for i := range locals {
		locals[i], err = m.mem.Word(addr + 1 + uint32(i)*2)
		if err != nil {
			return err
		}
	}
	for i := 0; i < len(args) && i < len(locals); i++ {
		locals[i] = args[i]
	}

	m.frames = append(m.frames, frame{
		retPC:  m.pc,
		store:  store,
		locals: locals,
	})
	m.pc = addr + 1 + uint32(nlocals)*2
	return nil
}

// returnFromRoutine pops exactly one frame, resumes at its return address
// and stores the returned value in the frame's target.
func (m *Machine) returnFromRoutine(val uint16) error {
	if len(m.frames) <= 1 {
		return fmt.Errorf("%w: return with no caller", ErrStackUnderflow)
	}
	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.pc = f.retPC
	return m.storeVar(f.store, val)
}
