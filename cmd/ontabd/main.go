package main

import (
	"context"
	"log"
	"os"

	"github.com/ShiyouQi888/on-tab/internal/buildinfo"
	"github.com/ShiyouQi888/on-tab/internal/client/config"
	"github.com/ShiyouQi888/on-tab/internal/daemon"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := daemon.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
