package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hetulpatel/lotbidder/internal/app"
	"github.com/hetulpatel/lotbidder/internal/config"
	"github.com/hetulpatel/lotbidder/internal/ledger"
	"github.com/hetulpatel/lotbidder/internal/sink"
	"github.com/hetulpatel/lotbidder/internal/storage"
)

func main() {
	showBatch := flag.Bool("batch", false, "print the last written batch")
	forget := flag.String("forget", "", "remove a lot id from the processed set")
	logout := flag.Bool("logout", false, "drop the stored session cookies")
	flag.Parse()

	storeCfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	blobs, err := app.OpenStore(ctx, storeCfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer blobs.Close()

	l := ledger.New(blobs, nil)
	set, err := l.Load(ctx)
	if err != nil {
		log.Fatalf("load ledger: %v", err)
	}

	if *forget != "" {
		if !set.Has(*forget) {
			log.Fatalf("lot %s is not in the processed set", *forget)
		}
		set.Remove(*forget)
		if err := l.Save(ctx, set); err != nil {
			log.Fatalf("save ledger: %v", err)
		}
		fmt.Printf("Forgot %s; it will be processed again on the next cycle\n", *forget)
	}

	if *logout {
		if err := blobs.Delete(ctx, storage.KeyCookies); err != nil {
			log.Fatalf("delete cookies: %v", err)
		}
		fmt.Println("Session cookies removed")
	}

	fmt.Printf("Processed lots: %d\n", set.Len())
	for _, id := range set.Sorted() {
		fmt.Printf("  %s\n", id)
	}

	if *showBatch {
		batch, err := sink.NewBlobSink(blobs, nil).LastBatch(ctx)
		if err != nil {
			log.Fatalf("load last batch: %v", err)
		}
		out, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			log.Fatalf("marshal batch: %v", err)
		}
		fmt.Printf("\nLast batch (%d payloads):\n%s\n", len(batch), out)
	}
}
