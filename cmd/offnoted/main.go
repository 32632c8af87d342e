package main

import (
	"context"
	"log"

	"github.com/offnote/offnote/internal/server"
	"github.com/offnote/offnote/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
