package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	loadercmd "github.com/talendarch/storygraph/internal/cmd/loader"
)

func main() {
	cfg, err := loadercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[LOADER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("loader failed: %v", err)
	}
}
