package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/KirkDiggler/headsteal/internal/config"
	"github.com/KirkDiggler/headsteal/internal/logger"
	banboxrepo "github.com/KirkDiggler/headsteal/internal/repositories/banbox"
)

func main() {
	asJSON := flag.Bool("json", false, "print records as JSON")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load config")
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := banboxrepo.Open(ctx, banboxrepo.StoreConfig{
		RedisURL:   cfg.Store.RedisURL,
		RedisKey:   cfg.Store.RedisKey,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open BanBox store")
	}
	defer store.Close()

	if store.Backend == banboxrepo.BackendMemory {
		logger.Log.Fatal("No STORE_REDIS_URL or STORE_SQLITE_PATH set, nothing to list")
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load records")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			logger.Log.WithError(err).Fatal("Failed to encode records")
		}
		return
	}

	fmt.Printf("Found %d records in %s:\n", len(records), store.Backend)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tNAME\tSTATUS\tDEATH\tBANNED\tRELEASES")
	for _, rec := range records {
		releases := "never"
		if rec.TimerDays > 0 {
			releases = rec.ReleaseAt().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.PlayerID, rec.PlayerName, rec.Status, rec.DeathLocation,
			rec.BannedAt.Format(time.RFC3339), releases)
	}
	if err := w.Flush(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to write output")
	}
}
