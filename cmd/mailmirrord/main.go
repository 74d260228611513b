package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/mailmirror/internal/config"
	"github.com/matheus3301/mailmirror/internal/messaging"
	"github.com/matheus3301/mailmirror/internal/rpc"
)

func main() {
	serverFlag := flag.String("server", "http://localhost:8069", "backend base URL")
	configFlag := flag.String("config", "", "config file path (TOML)")
	logFlag := flag.String("log", "", "log file path (empty disables logging)")
	flag.Parse()

	cfg := config.New()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	client, err := rpc.NewClient(*serverFlag, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		messaging.Module(messaging.Params{
			RPC:     client,
			Config:  cfg,
			LogPath: *logFlag,
		}),
	)

	app.Run()
}
