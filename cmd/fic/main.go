package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/grue/fic/internal/config"
	"github.com/grue/fic/internal/zmachine"
	"github.com/grue/fic/internal/zsave"
	"github.com/grue/fic/internal/zscreen"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes: 0 the story quit or input ended, 1 a runtime fault halted
// the machine, 2 bad usage or an unloadable story.
const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flagPipe    = flag.Bool("pipe", false, "force pipe mode: plain line output, no ANSI")
		flagTerm    = flag.Bool("term", false, "force terminal mode: ANSI status bar and windows")
		flagSaveDB  = flag.String("save", "", "SQLite save database path (default: bare files next to the story)")
		flagSlot    = flag.String("slot", "", "save slot name within the database")
		flagSeed    = flag.Int64("seed", 0, "fix the random seed (0 = from the clock)")
		flagConfig  = flag.String("config", "", "path to fic.yaml")
		flagDisasm  = flag.String("disasm", "", "disassemble ADDR:COUNT and exit (e.g. 0x4f05:20)")
		flagVerbose = flag.Int("v", 0, "log verbosity 0-3")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: fic [flags] story.z3\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return exitUsage
	}
	if *flagPipe && *flagTerm {
		fmt.Fprintln(os.Stderr, "fic: -pipe and -term are mutually exclusive")
		return exitUsage
	}

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fic: %v\n", err)
		return exitUsage
	}
	applyFlags(cfg, flagSaveDB, flagSlot, flagSeed, flagVerbose)

	commonlog.Configure(cfg.Verbosity, nil)

	storyPath := flag.Arg(0)
	story, err := os.ReadFile(storyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fic: %v\n", err)
		return exitUsage
	}

	saves, closeSaves, err := newSaveBackend(cfg, storyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fic: %v\n", err)
		return exitUsage
	}
	defer closeSaves()

	sink := newSink(*flagPipe, *flagTerm, cfg)

	m, err := zmachine.New(story, zmachine.Options{
		Sink:  sink,
		Saves: saves,
		Seed:  cfg.Seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fic: %s: %v\n", storyPath, err)
		return exitUsage
	}

	if *flagDisasm != "" {
		return disassemble(m, *flagDisasm)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "fic: %v\n", err)
		return exitFault
	}
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	// An adjacent fic.yaml is picked up when present; its absence is not
	// an error.
	cfg, err := config.Load("fic.yaml")
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) || errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// applyFlags layers explicitly-set flags over the file configuration.
func applyFlags(cfg *config.Config, saveDB *string, slot *string, seed *int64, verbose *int) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "save":
			cfg.SaveDB = *saveDB
		case "slot":
			cfg.Slot = *slot
		case "seed":
			cfg.Seed = *seed
		case "v":
			cfg.Verbosity = *verbose
		}
	})
}

func newSink(forcePipe, forceTerm bool, cfg *config.Config) zscreen.Sink {
	useTerm := forceTerm
	if !forcePipe && !forceTerm {
		fd := os.Stdout.Fd()
		useTerm = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if useTerm {
		return zscreen.NewTermSink(os.Stdin, os.Stdout, 0)
	}
	p := zscreen.NewPipeSink(os.Stdin, os.Stdout)
	p.ShowBanner = cfg.StatusBanner
	return p
}

// newSaveBackend picks slot storage when a database is configured and
// bare snapshot files next to the story otherwise.
func newSaveBackend(cfg *config.Config, storyPath string) (zmachine.SaveBackend, func(), error) {
	if cfg.SaveDB == "" {
		base := strings.TrimSuffix(storyPath, filepath.Ext(storyPath))
		return &fileBackend{path: base + ".sav"}, func() {}, nil
	}
	store, err := zsave.Open(cfg.SaveDB)
	if err != nil {
		return nil, nil, err
	}
	return &slotBackend{store: store, slot: cfg.Slot}, func() { store.Close() }, nil
}

// fileBackend keeps exactly one snapshot in a bare file.
type fileBackend struct {
	path string
}

func (b *fileBackend) Save(snap *zsave.Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o644)
}

func (b *fileBackend) Load() (*zsave.Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, err
	}
	return zsave.Unmarshal(data)
}

// slotBackend stores snapshots in a named slot of the SQLite store.
type slotBackend struct {
	store *zsave.Store
	slot  string
}

func (b *slotBackend) Save(snap *zsave.Snapshot) error {
	return b.store.Put(b.slot, snap)
}

func (b *slotBackend) Load() (*zsave.Snapshot, error) {
	return b.store.Get(b.slot)
}

// disassemble handles -disasm ADDR:COUNT.
func disassemble(m *zmachine.Machine, spec string) int {
	addrStr, countStr, ok := strings.Cut(spec, ":")
	if !ok {
		fmt.Fprintln(os.Stderr, "fic: -disasm wants ADDR:COUNT")
		return exitUsage
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fic: bad disasm address %q\n", addrStr)
		return exitUsage
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 {
		fmt.Fprintf(os.Stderr, "fic: bad disasm count %q\n", countStr)
		return exitUsage
	}
	fmt.Print(m.Disassemble(uint32(addr), count))
	return exitOK
}
