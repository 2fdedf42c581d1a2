package cmd

import (
	"encoding/hex"
	"io"
	"log/slog"
)

// Logger builds the text-handler slog.Logger every subcommand in this
// package logs through. The teacher wraps log/slog behind go-ethereum's
// log package purely for its LogfmtHandler; we depend on slog directly
// since nothing else in this module needs go-ethereum.
func Logger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LoggingWriter wraps a logger and exposes an io.Writer interface for the
// program running inside the hart to write to (its stdout/stderr fds).
type LoggingWriter struct {
	Name string
	Log  *slog.Logger
}

func logAsText(b string) bool {
	for _, c := range b {
		if (c < 0x20 || c >= 0x7F) && c != '\n' && c != '\t' {
			return false
		}
	}
	return true
}

func (lw *LoggingWriter) Write(b []byte) (int, error) {
	t := string(b)
	if logAsText(t) {
		lw.Log.Info(lw.Name, "text", t)
	} else {
		lw.Log.Info(lw.Name, "data", hex.EncodeToString(b))
	}
	return len(b), nil
}

// HexU32 lazy-formats an address or word for logging without paying for
// the fmt.Sprintf call on log levels that end up discarded.
type HexU32 uint32

func (v HexU32) String() string {
	const hexDigits = "0123456789abcdef"
	buf := [8]byte{}
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf[:])
}
