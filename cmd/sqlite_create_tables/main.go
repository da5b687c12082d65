package main

import (
	"context"
	"flag"
	"log"

	"github.com/hetulpatel/lotbidder/internal/config"
	"github.com/hetulpatel/lotbidder/internal/storage/sqlite"
)

func main() {
	drop := flag.Bool("drop", false, "drop existing tables first")
	wipe := flag.Bool("clear", false, "delete all stored blobs after creating")
	flag.Parse()

	storeCfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if storeCfg.Driver != config.DriverSQLite {
		log.Fatalf("STORE_DRIVER is %s; this tool manages the sqlite store only", storeCfg.Driver)
	}

	store, err := sqlite.Open(storeCfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if *drop {
		if err := store.DropTables(ctx); err != nil {
			log.Fatalf("drop tables: %v", err)
		}
	}
	if err := store.CreateTables(ctx); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if *wipe {
		if err := store.ClearTables(ctx); err != nil {
			log.Fatalf("clear tables: %v", err)
		}
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		log.Fatalf("list keys: %v", err)
	}
	log.Printf("SQLite tables ready at %s (%d keys)", store.Path(), len(keys))
	for key, updated := range keys {
		log.Printf("  %s updated %s", key, updated.Format("2006-01-02 15:04:05"))
	}
}
