package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/marcin-skalski/prwatch/internal/auth"
	"github.com/marcin-skalski/prwatch/internal/config"
	"github.com/marcin-skalski/prwatch/internal/store"
)

type StatusCmd struct{}

func (c *StatusCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	creds := auth.NewFileStore(cfg.CredentialsFile)
	_, signedIn, err := creds.Retrieve(auth.CredentialKey)
	if err != nil {
		return err
	}
	if signedIn {
		fmt.Println("Credential: stored")
	} else {
		fmt.Println("Credential: none (run `prwatch login`)")
	}

	cache, err := store.Open(cfg.CacheFile, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	defer cache.Close()

	snap, ok, err := cache.LoadSnapshot()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Snapshot: none yet")
		return nil
	}

	fmt.Printf("Snapshot: %d PRs, refreshed %s", len(snap.Pulls), snap.RefreshedAt.Format("2006-01-02 15:04:05"))
	if snap.Truncated {
		fmt.Print(" (truncated)")
	}
	fmt.Println()
	return nil
}
