// Package logging builds the engine's zerolog.Logger and renders its error
// taxonomy and validator findings as FHIR OperationOutcome resources.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level, writing structured JSON
// to stdout, or a human-readable console writer when dev is true.
func New(level string, dev bool) zerolog.Logger {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if dev {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return l.Level(lvl)
}
