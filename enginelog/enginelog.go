// Package enginelog configures the structured logger the scheduler uses
// for lifecycle events and the §7 invariant-violation diagnostic. Built on
// github.com/rs/zerolog, the logging library wired through the go-utilpkg
// example repo's logiface/izerolog adapters.
package enginelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console-formatted zerolog.Logger writing to w (os.Stderr
// when w is nil), tagged with the "txnproc" component field.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}).
		With().
		Timestamp().
		Str("component", "txnproc").
		Logger()
}
