package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	authcmd "github.com/louisbranch/userapi/internal/cmd/auth"
	"github.com/louisbranch/userapi/internal/platform/config"
)

func main() {
	log.SetPrefix("[AUTH] ")
	if os.Getenv("NODE_ENV") != "production" && os.Getenv("APP_ENV") != "production" {
		if err := config.LoadDotenv(); err != nil {
			log.Printf("load .env: %v", err)
		}
	}
	cfg, err := authcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := authcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
