package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

// ErrUsage reports invalid command-line arguments.
var ErrUsage = errors.New("invalid usage")

// serverFlags holds the command-line flags. Host and port are bound into the
// configuration only when set.
type serverFlags struct {
	config  string
	host    string
	port    int
	verbose bool
	version bool
}

// parseFlags parses args (including the program name). It returns
// flag.ErrHelp unwrapped when help was requested.
func parseFlags(args []string, stderr io.Writer) (*serverFlags, *flag.FlagSet, error) {
	name := "javaprint-server"
	if len(args) > 0 {
		name = filepath.Base(args[0])
		args = args[1:]
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	f := &serverFlags{}
	fs.StringVarP(&f.config, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.host, "host", "", "listen host (overrides HOST)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (overrides PORT)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log GOMAXPROCS and startup details")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return f, fs, nil
}
