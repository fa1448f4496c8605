// Command zdb-server runs the single-threaded key/value server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"zdb"
	"zdb/internal/config"
	"zdb/internal/netloop"
)

var cli struct {
	Listen string `help:"TCP address to listen on." default:""`
	Config string `help:"Optional TOML config file." type:"path" default:""`
}

func main() {
	kong.Parse(&cli, kong.Description("An in-memory key/value server with string and sorted-set values."))

	cfg, err := config.LoadFile(cli.Config)
	if err != nil {
		log.Fatalln("loading config:", err.Error())
	}
	if cli.Listen != "" {
		cfg.ListenAddr = cli.Listen
	}

	ks := zdb.NewKeyspace()
	srv, err := netloop.New(cfg, ks)
	if err != nil {
		log.Fatalln("starting server:", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := srv.Run(ctx); err != nil {
		log.Fatalln("server loop:", err.Error())
	}
}
