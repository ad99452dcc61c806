package main

import (
	"log"

	"github.com/relabs-tech/rover_sensors/internal/app"
	"github.com/relabs-tech/rover_sensors/internal/config"
)

func main() {
	log.Println("starting rover console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("rover_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
