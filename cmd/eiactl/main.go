package main

import (
	"fmt"
	"os"

	"eia-drafter/cmd/eiactl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
