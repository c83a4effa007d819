package main

import (
	"context"
	"log"
	"os"

	"github.com/ShiyouQi888/on-tab/internal/buildinfo"
	"github.com/ShiyouQi888/on-tab/internal/client/cli"
	"github.com/ShiyouQi888/on-tab/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
