package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const usageStr = `
replicasim drives an in-memory multi-replica simulation of the runtime
in package replica, for manual exercise of the convergence scenarios in
spec.md.

Usage:

	replicasim [-f script] [-v]

Reads one command per line from the script file given by -f, or from
stdin otherwise. Blank lines and lines starting with # are ignored.

Commands:

	replica [name]              create a replica; a shortid name is
	                             generated if name is omitted
	send <name> add <value>     Send(awset.Add(value))
	send <name> remove <value>  Send(awset.Remove(value))
	send <name> clear           Send(awset.Clear())
	deliver <from> <to>         deliver from's undelivered sends to to
	pull <to> <from>            to runs an anti-entropy pull from from
	query <name>                print name's current converged set
`

func main() {
	cfg := &config{}
	flags := pflag.NewFlagSet("replicasim", pflag.ExitOnError)
	cfg.bind(flags)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usageStr) }
	_ = flags.Parse(os.Args[1:]) // ExitOnError: never returns a non-nil err

	if cfg.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	in := os.Stdin
	if cfg.script != "" {
		f, err := os.Open(cfg.script)
		if err != nil {
			fmt.Fprintln(os.Stderr, "replicasim:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	sim := newSimulator()
	scanner := bufio.NewScanner(in)
	lineNo := 0
	status := 0
	for scanner.Scan() {
		lineNo++
		if err := sim.run(scanner.Text(), func(format string, args ...any) {
			fmt.Fprintf(os.Stdout, format, args...)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "replicasim: line %d: %v\n", lineNo, err)
			status = 1
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "replicasim:", err)
		status = 1
	}
	os.Exit(status)
}
