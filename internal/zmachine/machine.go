// Package zmachine implements the interpreter core: the fetch/decode/
// execute loop over a loaded story image, the call-frame stack, variable
// storage, and the version-3 opcode tables. One Machine owns all mutable
// game state; multiple machines can coexist in a process.
package zmachine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/tliron/commonlog"

	"github.com/grue/fic/internal/zdict"
	"github.com/grue/fic/internal/zmem"
	"github.com/grue/fic/internal/zobject"
	"github.com/grue/fic/internal/zsave"
	"github.com/grue/fic/internal/zscreen"
	"github.com/grue/fic/internal/ztext"
)

var (
	ErrIllegalOpcode  = errors.New("illegal opcode")
	ErrDivisionByZero = errors.New("division by zero")
	ErrStackUnderflow = errors.New("evaluation stack underflow")
	ErrCorruptRoutine = errors.New("corrupt routine header")
)

// maxFrames bounds call depth so runaway recursion in a story file fails
// instead of exhausting memory.
const maxFrames = 1024

// State is the execution state of the machine.
type State int

const (
	Running State = iota
	AwaitingInput
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingInput:
		return "awaiting-input"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// SaveBackend persists snapshots for the save/restore opcodes. A machine
// without a backend treats both opcodes as failed (branch not taken).
type SaveBackend interface {
	Save(*zsave.Snapshot) error
	Load() (*zsave.Snapshot, error)
}

// Options configures a new machine. Zero values select a pipe sink on
// stdin/stdout, no save backend, and a time-seeded random generator.
type Options struct {
	Sink  zscreen.Sink
	Saves SaveBackend

	// Seed fixes the random generator for reproducible runs. Zero seeds
	// from the clock.
	Seed int64

	// Tick, when set, runs between instructions. Returning an error halts
	// the machine. This is the hook for externally modeled timed
	// interrupts; nothing ever preempts a running instruction.
	Tick func() error
}

// Machine is one interpreter instance.
type Machine struct {
	mem      *zmem.Memory
	pristine *zmem.Memory
	dec      *ztext.Decoder
	objects  *zobject.Table
	dict     *zdict.Dictionary
	screen   *zscreen.Screen
	saves    SaveBackend
	tick     func() error
	log      commonlog.Logger

	pc     uint32
	frames []frame
	state  State
	rng    *rand.Rand

	// ctx is the run context, set for the duration of Run so the input
	// suspension point can honor cancellation.
	ctx context.Context
}

// New loads a story image and prepares a machine positioned at the
// story's initial program counter. The image bytes are copied; the caller
// keeps ownership of story.
func New(story []byte, opts Options) (*Machine, error) {
	image := make([]byte, len(story))
	copy(image, story)
	mem, err := zmem.New(image)
	if err != nil {
		return nil, err
	}

	// A second, never-written copy backs restart and verify.
	orig := make([]byte, len(story))
	copy(orig, story)
	pristine, err := zmem.New(orig)
	if err != nil {
		return nil, err
	}

	dec := ztext.NewDecoder(mem)
	dict, err := zdict.New(mem)
	if err != nil {
		return nil, err
	}

	sink := opts.Sink
	if sink == nil {
		sink = zscreen.NewPipeSink(os.Stdin, os.Stdout)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := &Machine{
		mem:      mem,
		pristine: pristine,
		dec:      dec,
		objects:  zobject.New(mem, dec),
		dict:     dict,
		screen:   zscreen.New(sink),
		saves:    opts.Saves,
		tick:     opts.Tick,
		log:      commonlog.GetLogger("fic.machine"),
		pc:       mem.InitialPC(),
		frames:   []frame{{}},
		rng:      rand.New(rand.NewSource(seed)),
	}
	return m, nil
}

// State returns the current execution state.
func (m *Machine) State() State { return m.state }

// PC returns the current program counter.
func (m *Machine) PC() uint32 { return m.pc }

// Run executes instructions until the machine halts or the context is
// canceled. Input is serviced through the screen sink; that call is the
// only point at which execution suspends.
func (m *Machine) Run(ctx context.Context) error {
	m.ctx = ctx
	defer func() { m.ctx = nil }()

	for m.state == Running {
		if err := ctx.Err(); err != nil {
			m.state = Halted
			return err
		}
		if m.tick != nil {
			if err := m.tick(); err != nil {
				m.state = Halted
				return fmt.Errorf("tick hook: %w", err)
			}
		}
		if err := m.Step(); err != nil {
			m.state = Halted
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction.
func (m *Machine) Step() error {
	in, err := m.decodeInstruction(m.pc)
	if err != nil {
		return fmt.Errorf("pc 0x%X: %w", m.pc, err)
	}
	m.pc = in.next

	vals, err := m.resolveOperands(in.ops)
	if err != nil {
		return fmt.Errorf("pc 0x%X (%s): %w", in.addr, opName(in), err)
	}

	handler := lookupHandler(in)
	if handler == nil {
		return fmt.Errorf("%w: 0x%02X at 0x%X", ErrIllegalOpcode, in.opcode, in.addr)
	}

	m.log.Debugf("pc=0x%05X %s", in.addr, opName(in))
	if err := handler(m, vals); err != nil {
		return fmt.Errorf("pc 0x%X (%s): %w", in.addr, opName(in), err)
	}
	return nil
}

// globalAddr returns the address of global variable i (0-based; variable
// number 16 is global 0).
func (m *Machine) globalAddr(i byte) uint32 {
	return m.mem.GlobalsAddr() + 2*uint32(i)
}

// loadVar reads variable v: 0 pops the evaluation stack, 1-15 are locals
// of the current frame, 16+ are globals.
func (m *Machine) loadVar(v byte) (uint16, error) {
	switch {
	case v == 0:
		return m.topFrame().pop()
	case v < 16:
		return m.topFrame().local(int(v) - 1)
	default:
		return m.mem.Word(m.globalAddr(v - 16))
	}
}

// storeVar writes variable v; v of 0 pushes onto the evaluation stack.
func (m *Machine) storeVar(v byte, val uint16) error {
	switch {
	case v == 0:
		m.topFrame().push(val)
		return nil
	case v < 16:
		return m.topFrame().setLocal(int(v)-1, val)
	default:
		return m.mem.SetWord(m.globalAddr(v-16), val)
	}
}

// loadVarInPlace is the variant used by opcodes that name a variable as
// an operand (load, store, inc, dec, pull): variable 0 reads the stack
// top without popping.
func (m *Machine) loadVarInPlace(v byte) (uint16, error) {
	if v == 0 {
		return m.topFrame().top()
	}
	return m.loadVar(v)
}

// storeVarInPlace writes variable v, replacing the stack top for v of 0.
func (m *Machine) storeVarInPlace(v byte, val uint16) error {
	if v == 0 {
		return m.topFrame().setTop(val)
	}
	return m.storeVar(v, val)
}

// addToVar adjusts a named variable in place and returns the new value.
func (m *Machine) addToVar(v uint16, delta int16) (uint16, error) {
	cur, err := m.loadVarInPlace(byte(v))
	if err != nil {
		return 0, err
	}
	next := uint16(int16(cur) + delta)
	if err := m.storeVarInPlace(byte(v), next); err != nil {
		return 0, err
	}
	return next, nil
}

// readStoreVar consumes the store-target byte following the operands of a
// store-class instruction.
func (m *Machine) readStoreVar() (byte, error) {
	b, err := m.mem.Byte(m.pc)
	if err != nil {
		return 0, err
	}
	m.pc++
	return b, nil
}

// global reads global variable i (0-based), used for the status line.
func (m *Machine) global(i byte) (uint16, error) {
	return m.mem.Word(m.globalAddr(i))
}

// refreshStatus redraws the status line: the short name of the object in
// global 0 plus the score and turn counters in globals 1 and 2.
func (m *Machine) refreshStatus() error {
	loc, err := m.global(0)
	if err != nil {
		return err
	}
	name := ""
	if loc != 0 {
		name, err = m.objects.Name(loc)
		if err != nil {
			return err
		}
	}
	score, err := m.global(1)
	if err != nil {
		return err
	}
	turns, err := m.global(2)
	if err != nil {
		return err
	}
	m.screen.ShowStatus(name, int(int16(score)), int(turns))
	return nil
}

// reseed resets the random generator; a seed of zero falls back to the
// clock.
func (m *Machine) reseed(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m.rng = rand.New(rand.NewSource(seed))
}

// restart reloads dynamic memory from the pristine image and rewinds to
// the initial program counter. The transcript and fixed-font bits of
// Flags2 survive, everything else resets.
func (m *Machine) restart() error {
	keep := m.mem.Flags2() & 0x3
	if err := m.mem.RestoreDynamic(m.pristine.DynamicSnapshot()); err != nil {
		return err
	}
	if err := m.mem.SetFlags2(m.pristine.Flags2()&^0x3 | keep); err != nil {
		return err
	}
	m.frames = m.frames[:0]
	m.frames = append(m.frames, frame{})
	m.pc = m.mem.InitialPC()
	m.screen.EraseWindow(zscreen.All)
	return nil
}
