package main

import (
	"os"

	"github.com/linkgrove/searchsync/syncworker"
)

func main() {
	if err := syncworker.Run(); err != nil {
		os.Exit(1)
	}
}
