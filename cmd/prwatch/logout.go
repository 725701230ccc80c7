package main

import (
	"fmt"

	"github.com/marcin-skalski/prwatch/internal/auth"
	"github.com/marcin-skalski/prwatch/internal/config"
)

type LogoutCmd struct{}

func (c *LogoutCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	creds := auth.NewFileStore(cfg.CredentialsFile)
	if err := creds.Delete(auth.CredentialKey); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}
