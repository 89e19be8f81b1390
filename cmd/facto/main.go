package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	facto "github.com/facto-lang/facto/pkg/embed"
)

func main() {
	debug := flag.Int("debug", 0, "debug level (2 traces every binding)")
	dump := flag.Bool("dump", false, "print the final environment as YAML")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: facto [-debug N] [-dump] file.facto ...")
		os.Exit(2)
	}

	in := facto.New(facto.WithDebug(*debug))

	for _, path := range flag.Args() {
		if err := in.EvalFile(path); err != nil {
			fail(err)
		}
	}

	if *dump {
		if err := in.DumpYAML(os.Stdout); err != nil {
			fail(err)
		}
	} else {
		in.PrintEnv(os.Stdout)
	}
}

func fail(err error) {
	msg := err.Error()
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		msg = "\033[31m" + msg + "\033[0m"
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
