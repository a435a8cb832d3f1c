// Command recall-server runs the recall memory API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/recallhq/recall/internal/analyzer"
	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/internal/server"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/internal/storage/postgres"
	"github.com/recallhq/recall/internal/storage/sqlite"
	"github.com/recallhq/recall/internal/vector"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gateway, err := openGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer gateway.Close()

	index, err := buildIndex(cfg, gateway)
	if err != nil {
		log.Fatalf("Failed to initialize similarity index: %v", err)
	}

	lexicon, err := analyzer.LoadLexicon(cfg.Analyzer.LexiconPath)
	if err != nil {
		log.Fatalf("Failed to load analyzer lexicon: %v", err)
	}
	contentAnalyzer := analyzer.New(lexicon, analyzer.Config{
		MaxKeywords:     cfg.Analyzer.MaxKeywords,
		EnableEntities:  cfg.Analyzer.EnableEntities,
		EnableSentiment: cfg.Analyzer.EnableSentiment,
	})

	eng := engine.New(gateway, index, contentAnalyzer, engine.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _, err := server.Start(ctx, cfg, eng)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("recall server running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second)
}

// openGateway selects the storage backend from configuration.
func openGateway(cfg *config.Config) (storage.Gateway, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return postgres.NewGateway(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return sqlite.NewGateway(cfg.Storage.SQLitePath)
	}
}

// buildIndex assembles the similarity index: a pgvector-backed index when
// configured and the gateway is PostgreSQL, otherwise the in-process local
// index. Either way the index is wrapped in a circuit breaker guard.
func buildIndex(cfg *config.Config, gateway storage.Gateway) (vector.SimilarityIndex, error) {
	embedder := vector.NewFeatureEmbedder(cfg.Vector.Dimension)

	var (
		inner vector.SimilarityIndex
		err   error
	)
	if cfg.Vector.Backend == "pgvector" {
		pg, ok := gateway.(*postgres.Gateway)
		if !ok {
			log.Println("WARNING: pgvector index requires the postgres backend, falling back to local")
			inner, err = vector.NewLocalIndex(embedder)
		} else {
			inner, err = vector.NewPgVectorIndex(pg.GetDB(), embedder)
		}
	} else {
		inner, err = vector.NewLocalIndex(embedder)
	}
	if err != nil {
		return nil, err
	}

	return vector.NewGuardedIndex(inner, vector.GuardConfig{
		MaxFailures:   uint32(cfg.Vector.BreakerMaxFailures),
		RatePerSecond: cfg.Vector.RatePerSecond,
	}), nil
}
