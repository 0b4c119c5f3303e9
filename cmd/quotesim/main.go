package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/andresuchdata/setledger-ai/internal/competitor"
	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/pkg/logger"
)

// quotesim serves deterministic competitor quotes for local runs with COMPETITOR_MODE=http
func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	port := os.Getenv("QUOTESIM_PORT")
	if port == "" {
		port = "5100"
	}

	r := competitor.NewSimulatorRouter(competitor.StubSource{})

	addr := fmt.Sprintf(":%s", port)
	logger.Log.Info().Str("addr", addr).Msg("Quote simulator starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Quote simulator stopped")
	}
}
