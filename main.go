package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"tetrix/client"
	"tetrix/config"
	"tetrix/logger"

	"github.com/eiannone/keyboard"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[2J\033[H\033[?25h"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	mode := flag.String("mode", "", "log mode: dev, prod or silence")
	addr := flag.String("addr", "", "address of the tetrix server")
	name := flag.String("name", "", "name shown to the opponent")
	watch := flag.String("watch", "", "id of an online game to watch")
	noGhost := flag.Bool("noghost", false, "hide the ghost piece")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("unable to load config: %v", err)
		}
	}
	if *mode != "" {
		cfg.Log.Mode = *mode
	}
	if *addr != "" {
		cfg.Client.Address = *addr
	}
	if *name != "" {
		cfg.Client.Name = *name
	}
	if cfg.Client.Name == "" {
		cfg.Client.Name = os.Getenv("USER")
	}
	cfg.Client.NoGhost = cfg.Client.NoGhost || *noGhost
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// the terminal belongs to the game, logs go to a file.
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("unable to open log file: %v", err)
	}
	defer f.Close()
	l := logger.New(cfg.LogMode(), f)

	kb, err := keyboard.GetKeys(20)
	if err != nil {
		log.Fatalf("unable to open keyboard: %v", err)
	}
	defer func() {
		if err := keyboard.Close(); err != nil {
			l.Error("unable to close keyboard", slog.String("error", err.Error()))
		}
	}()

	c, err := client.New(kb, &client.Options{Config: cfg, Logger: l, Writer: os.Stdout})
	if err != nil {
		_ = keyboard.Close()
		log.Fatalf("unable to start client: %v", err)
	}

	fmt.Print(hideCursor)
	defer fmt.Print(showCursor)
	if *watch != "" {
		c.Watch(*watch)
		return
	}
	c.Start()
}
