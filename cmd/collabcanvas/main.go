package main

import (
	"github.com/spf13/cobra"

	"github.com/jai2010/CollabCanvas/internal/config"
)

const (
	releaseVersion = "0.1.0"
)

func main() {
	cfg := config.Default()
	cobra.CheckErr(newCmd(cfg).Execute())
}
