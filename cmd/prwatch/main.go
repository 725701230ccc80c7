package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Config string `help:"Path to config file" type:"path" default:"${config_path}"`

	Run    RunCmd    `cmd:"" default:"withargs" help:"Start the sync engine (default)"`
	Login  LoginCmd  `cmd:"" help:"Store a personal access token and validate its scopes"`
	Logout LogoutCmd `cmd:"" help:"Delete the stored token"`
	Status StatusCmd `cmd:"" help:"Show session and snapshot status"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("prwatch"),
		kong.Description("Track your pull requests across every repo and org you can reach."),
		kong.Vars{
			"config_path": defaultConfigPath(),
		},
		kong.UsageOnError(),
		kong.Bind(&cli),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".prwatch", "config.yaml")
}
