// cmd/submitter/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"admission-intake/internal/common/config"
	"admission-intake/internal/common/logger"
	"admission-intake/internal/submitter"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml)")
	address := flag.String("address", "", "receiver host:port, overrides client.address")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Client.Address = *address
	}

	// The console belongs to the applicant; logs go to stderr at warn and above.
	zapLog := logger.New("warn", cfg.Logging.Format)
	defer zapLog.Sync()

	rec, err := submitter.NewPrompter(os.Stdin, os.Stdout).Collect()
	if err != nil {
		zapLog.Error("input aborted", zap.Error(err))
		os.Exit(1)
	}

	client := submitter.New(submitter.NewConfig(cfg.Client), logger.NewZapAdapter(zapLog))
	resp := client.Submit(context.Background(), rec)

	if err := submitter.Render(os.Stdout, resp); err != nil {
		os.Exit(1)
	}
	if !resp.IsSuccess() {
		os.Exit(2)
	}
}
