package main

import (
	"log"

	"github.com/jonesrussell/pocketish/internal/bootstrap"
)

func main() {
	if err := bootstrap.Start(); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}
