package api

import (
	"fmt"
	"log"

	"Showdown/config"
	"Showdown/controllers"
)

var server = controllers.Server{}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	server.Initialize(cfg)

	addr := cfg.Addr()
	fmt.Printf("Listening on %s\n", addr)
	server.Run(addr)
}
