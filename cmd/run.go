package cmd

import (
	"debug/elf"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rvcore/rvemu/decode"
	"github.com/rvcore/rvemu/hart"
	"github.com/rvcore/rvemu/loader"
	"github.com/rvcore/rvemu/memory"
	"github.com/rvcore/rvemu/riscv"
)

var (
	RunTraceFlag = &cli.BoolFlag{
		Name:    "trace",
		Aliases: []string{"v"},
		Usage:   "log every fetched instruction to stderr",
	}
	RunMaxStepsFlag = &cli.Uint64Flag{
		Name:  "max-steps",
		Usage: "stop after this many steps even if the program has not halted",
		Value: 10_000_000,
	}
)

var RunCommand = &cli.Command{
	Name:      "run",
	Usage:     "load an ELF binary and interpret it until it halts",
	ArgsUsage: "<elf-path> [a0] [a1]",
	Action:    Run,
	Flags: []cli.Flag{
		RunTraceFlag,
		RunMaxStepsFlag,
	},
}

// Run loads the ELF named by the first positional argument, seeds sp/gp
// from the loader and a0/a1 from any remaining positional arguments, and
// steps the hart until it halts or the step budget in RunMaxStepsFlag is
// exhausted. Adapted from the teacher's rvgo/cmd/run.go, stripped of its
// preimage-oracle plumbing, proof/snapshot emission, and stop-at matchers:
// this emulator has no fault-proof witness to produce, so the loop is
// just fetch-decode-execute until Halted.
func Run(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: rvemu run <elf-path> [a0] [a1]")
		os.Exit(255) // -1, per spec.md's exit-code convention for usage errors
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return fmt.Errorf("failed to parse ELF: %w", err)
	}
	defer ef.Close()

	mem := memory.New()
	img, err := loader.Load(ef, mem)
	if err != nil {
		return fmt.Errorf("failed to load ELF: %w", err)
	}

	h := hart.New(mem,
		hart.WithXLEN(img.XLEN),
		hart.WithEntry(img.Entry),
		hart.WithStackPointer(img.SP),
	)
	h.Regs[riscv.RegGP] = img.GP
	if args := ctx.Args().Slice(); len(args) > 1 {
		for i, a := range args[1:] {
			var v uint64
			if _, err := fmt.Sscanf(a, "0x%x", &v); err != nil {
				fmt.Sscanf(a, "%d", &v)
			}
			h.Regs[riscv.RegA0+i] = v
		}
	}

	l := Logger(os.Stderr, slog.LevelInfo)
	if ctx.Bool(RunTraceFlag.Name) {
		traceLog := &LoggingWriter{Name: "trace", Log: l}
		h.Trace = func(pc uint64, ins decode.Instruction) {
			fmt.Fprintf(traceLog, "pc=%s kind=%v\n", HexU32(uint32(pc)), ins.Kind)
		}
	}

	maxSteps := ctx.Uint64(RunMaxStepsFlag.Name)
	var steps uint64
	for !h.Halted {
		if steps >= maxSteps {
			return fmt.Errorf("exceeded step budget of %d without halting", maxSteps)
		}
		if err := h.Step(); err != nil {
			return fmt.Errorf("failed at step %d (pc=%#x): %w", steps, h.PC, err)
		}
		steps++
	}

	fmt.Fprintf(os.Stdout, "halted after %d steps, exit code %d\n", steps, h.ExitCode)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(os.Stdout, "x%-2d=%016x x%-2d=%016x x%-2d=%016x x%-2d=%016x\n",
			i, h.Regs[i], i+1, h.Regs[i+1], i+2, h.Regs[i+2], i+3, h.Regs[i+3])
	}

	os.Exit(int(byte(h.ExitCode)))
	return nil
}
