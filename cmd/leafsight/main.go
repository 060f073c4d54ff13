package main

import (
	"log"

	"github.com/verdantlabs/leafsight/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ leafsight failed to start: %v", err)
	}
}
