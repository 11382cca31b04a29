// Command server runs the Luminary catalog API.
package main

import (
	"context"
	"log"

	"github.com/luminary-catalog/luminary/internal/server"
	"github.com/luminary-catalog/luminary/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("luminary: %v", err)
	}

	app.Run(context.Background())
}
