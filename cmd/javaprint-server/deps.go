package main

import (
	"io"
	"log"
	"os"

	javaprint "github.com/alnah/go-javaprint"
)

// Dependencies holds injectable dependencies for testability.
type Dependencies struct {
	Stdout io.Writer
	Stderr io.Writer
	// NewEngine builds the PDF engine; tests swap in a fake.
	NewEngine func(opts ...javaprint.EngineOption) engine
}

// engine is a PDF engine the server must close on exit.
type engine interface {
	javaprint.PDFEngine
	Close() error
}

// DefaultDeps returns production dependencies.
func DefaultDeps() *Dependencies {
	return &Dependencies{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewEngine: func(opts ...javaprint.EngineOption) engine {
			return javaprint.NewRodEngine(opts...)
		},
	}
}

func (d *Dependencies) logger() *log.Logger {
	return log.New(d.Stderr, "javaprint: ", log.LstdFlags)
}
