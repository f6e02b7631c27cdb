// Command balltree builds ball trees over CSV vectors or text lines and
// answers k-NN and ranged queries against them.
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
