package main

import (
	"fmt"
	"os"

	mapreduce "github.com/emptyOVO/textjobs"
)

func main() {
	if err := mapreduce.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
