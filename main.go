package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"net/http"
	_ "net/http/pprof"

	"github.com/faiface/mainthread"
	"github.com/humboldt-xie/sdfcraft/world"
)

var (
	configPath = flag.String("c", "", "config file")
	dbPath     = flag.String("db", "", "chunk store file")
	listenAddr = flag.String("l", "", "serve chunks on this address")
	serverAddr = flag.String("s", "", "load chunks from this server")
	ticks      = flag.Int("ticks", 600, "ticks to run, 0 runs until interrupted")
	pprofPort  = flag.String("pprof", "", "http pprof port")

	logger = log.New(os.Stdout, "[sdfcraft] ", log.LstdFlags|log.Lmicroseconds)
)

func serve(cfg *Config) error {
	registry := cfg.Registry()
	loader, store, _, err := NewLoader(cfg, registry, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	l, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		return err
	}
	logger.Printf("serving chunks on %s", l.Addr())
	return world.NewServer(cfg.Factory(), loader, logger).Serve(l)
}

func run() {
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Fatal(err)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *listenAddr != "" {
		logger.Fatal(serve(cfg))
	}
	if *serverAddr != "" {
		cfg.Server = *serverAddr
	}

	game, err := NewGame(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	game.Start(ctx)
	game.Run(ctx, *ticks, time.Second/60, mainthread.Call)
	if err := game.Close(); err != nil {
		logger.Print(err)
	}
}

func main() {
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			logger.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
}
