package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rvcore/rvemu/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "rvemu"
	app.Usage = "RISC-V RV32I/RV64I emulator"
	app.Description = "Loads a static ELF and interprets it until it halts."
	app.Commands = []*cli.Command{
		cmd.RunCommand,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		fmt.Fprintln(os.Stderr, "\r\ninterrupted")
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		if errors.Is(err, ctx.Err()) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
