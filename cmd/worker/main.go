package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gallerykeeper/internal/worker"
	"github.com/dmitrijs2005/gallerykeeper/internal/worker/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := worker.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
