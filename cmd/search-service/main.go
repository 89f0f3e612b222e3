package main

import (
	"os"

	"github.com/linkgrove/searchsync/searchservice"
)

func main() {
	if err := searchservice.Run(); err != nil {
		os.Exit(1)
	}
}
