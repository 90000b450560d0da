package main

import (
	"log"
	"os"
	stdos "os"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()

	if len(os.Args) > 3 {
		log.Fatalf("too many arguments: %d", len(os.Args)) // want `avoid calling log.Fatalf in main.main`
	}

	go func() {
		os.Exit(3)
	}()

	stdos.Exit(1) // want `avoid calling os.Exit in main.main`
	os.Exit(0)    // want `avoid calling os.Exit in main.main`
}
