package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/marcin-skalski/prwatch/internal/auth"
	"github.com/marcin-skalski/prwatch/internal/config"
	"github.com/marcin-skalski/prwatch/internal/logging"
)

type LoginCmd struct {
	Token string `help:"Personal access token; prompted for when omitted" env:"PRWATCH_TOKEN"`
}

func (c *LoginCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	logger, err := logging.SetupLogger(cfg.LogFile, cfg.Log.Level, false)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logging.CloseFile()

	token := strings.TrimSpace(c.Token)
	if token == "" {
		fmt.Print("Personal access token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	session := auth.NewSession(cfg.APIBaseURL, auth.NewFileStore(cfg.CredentialsFile), logger)
	session.Configure(token)

	ctx := context.Background()
	check, err := session.ValidateScopes(ctx)
	if err != nil {
		return err
	}
	if !check.OK() {
		return fmt.Errorf("token is missing required scopes: %s", strings.Join(check.Missing, ", "))
	}
	for _, scope := range check.Warnings {
		fmt.Printf("Warning: token lacks the %q scope; organization repositories may be missing.\n", scope)
	}

	user, err := session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", user.Login)
	return nil
}
