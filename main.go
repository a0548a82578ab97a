package main

import (
	"os"

	"github.com/dispatchlab/fieldsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
