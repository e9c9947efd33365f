// Command migrate copies customers and messages from one backend to the
// other, e.g. to move an operator's sheet into sqlite or to seed a fresh
// sheet from the database. Both backends are configured from the same
// environment; -from and -to pick which is which.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/config"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/store"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"
)

func main() {
	from := flag.String("from", "sheets", "source backend: sqlite, postgres or sheets")
	to := flag.String("to", "sqlite", "destination backend: sqlite, postgres or sheets")
	skipMessages := flag.Bool("skip-messages", false, "copy only customers")
	flag.Parse()

	if *from == *to {
		log.Fatalf("source and destination backends are both %q", *from)
	}

	cfg := config.LoadConfig()
	if err := logger.Init(cfg.LogPath); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	srcCfg := *cfg
	srcCfg.StoreBackend = *from
	src, err := store.Open(ctx, &srcCfg)
	if err != nil {
		log.Fatalf("Failed to open source store %q: %v", *from, err)
	}
	defer src.Close()

	dstCfg := *cfg
	dstCfg.StoreBackend = *to
	dst, err := store.Open(ctx, &dstCfg)
	if err != nil {
		log.Fatalf("Failed to open destination store %q: %v", *to, err)
	}
	defer dst.Close()

	customers, err := src.ListCustomers(ctx)
	if err != nil {
		log.Fatalf("Failed to list customers: %v", err)
	}
	copied := 0
	for _, c := range customers {
		if c.Phone == "" {
			continue
		}
		if err := dst.PutCustomer(ctx, c); err != nil {
			log.Printf("Failed to copy customer %s: %v", c.Phone, err)
			continue
		}
		copied++
	}
	log.Printf("Copied %d/%d customers", copied, len(customers))

	if *skipMessages {
		return
	}

	messages, err := src.ListMessages(ctx)
	if err != nil {
		log.Fatalf("Failed to list messages: %v", err)
	}
	copied = 0
	for _, m := range messages {
		if err := dst.PutMessage(ctx, m); err != nil {
			log.Printf("Failed to copy message %s: %v", m.SID, err)
			continue
		}
		copied++
	}
	log.Printf("Copied %d/%d messages", copied, len(messages))
}
