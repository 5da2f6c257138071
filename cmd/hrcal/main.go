// Command hrcal reads the OneHR calendar from the terminal.
package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	a := &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		getenv: os.Getenv,
		now:    time.Now,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
