// Command mathsteps factors expressions from the command line.
//
// Usage:
//
//	mathsteps isolate "x^3*y + x^2*y^2"
//	mathsteps isolate -o yaml "3*(x - 1) + 2*(1 - x)"
//	mathsteps primes 360 -84
//	mathsteps divide "x*y + x" x
//	mathsteps batch exprs.txt --jobs 8
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
