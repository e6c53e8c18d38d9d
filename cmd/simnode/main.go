package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/automoto/drsync/config"
	"github.com/automoto/drsync/simnode"
	"github.com/charmbracelet/log"
)

func main() {
	cfg := config.Node

	flag.StringVar(&cfg.Name, "name", cfg.Name, "Node display name")
	flag.UintVar(&cfg.Port, "port", cfg.Port, "Port to listen on for peers")
	flag.IntVar(&cfg.TickRate, "tickrate", cfg.TickRate, "Simulation tick rate (ticks per second)")
	peers := flag.String("peers", "", "Comma-separated host:port of the other nodes")
	flag.StringVar(&cfg.NatsURL, "nats", cfg.NatsURL, "NATS server URL; replaces the peer mesh when set")
	flag.StringVar(&cfg.NatsPrefix, "prefix", cfg.NatsPrefix, "NATS subject prefix")
	flag.StringVar(&cfg.Terrain, "terrain", cfg.Terrain, "TMX terrain file (empty = flat ground)")
	flag.Float64Var(&cfg.FlatHeight, "flat", cfg.FlatHeight, "Ground height when no terrain is loaded")
	flag.IntVar(&cfg.DemoEntities, "entities", cfg.DemoEntities, "Number of demo entities this node owns")
	flag.DurationVar(&cfg.StatusInterval, "status", cfg.StatusInterval, "Interval between status lines (0 = off)")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level: debug, info, warn, error")
	profilesApp := flag.String("profiles", "", "gdata app name holding saved profile overrides (empty = defaults)")
	saveProfiles := flag.Bool("save-profiles", false, "Write the effective profiles to the -profiles store and exit")
	flag.Parse()

	if *peers != "" {
		cfg.Peers = strings.Split(*peers, ",")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid log level", "level", cfg.LogLevel, "err", err)
	}
	log.SetLevel(level)
	config.Node = cfg

	if *profilesApp != "" {
		store, err := config.OpenStore(*profilesApp)
		if err != nil {
			log.Fatal("profile store unavailable", "err", err)
		}
		if *saveProfiles {
			if err := config.SaveProfiles(store); err != nil {
				log.Fatal("saving profiles failed", "err", err)
			}
			log.Info("profiles saved", "app", *profilesApp)
			return
		}
		if _, err := config.LoadProfileOverrides(store); err != nil {
			log.Warn("profile overrides ignored", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simnode.Run(ctx, cfg, log.Default()); err != nil {
		log.Fatal("node stopped", "err", err)
	}
	log.Info("node shut down")
}
