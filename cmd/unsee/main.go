package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/betbot/copybet/internal/store"
)

// unsee removes transaction signatures from the dedup store so the
// upstream can redeliver them on purpose. This is the manual recovery
// path for failed copy trades: clear the signature, replay the webhook.
func main() {
	dbPath := flag.String("dedup", getenv("COPYBET_DEDUP_PATH", "data/dedup"), "dedup store path")
	flag.Parse()

	sigs := flag.Args()
	if len(sigs) == 0 {
		fatal(fmt.Errorf("usage: unsee [-dedup path] <signature> [signature...]"))
	}

	dedup, err := store.OpenDedup(*dbPath, 0)
	if err != nil {
		fatal(err)
	}
	defer dedup.Close()

	ctx := context.Background()
	for _, sig := range sigs {
		seen, err := dedup.Has(ctx, sig)
		if err != nil {
			fatal(err)
		}
		if !seen {
			fmt.Printf("%s: not present\n", sig)
			continue
		}
		if err := dedup.Forget(ctx, sig); err != nil {
			fatal(err)
		}
		fmt.Printf("%s: cleared\n", sig)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
