package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jai2010/CollabCanvas/internal/config"
)

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("COLLABCANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "collabcanvas",
		Short:         "Drop emoji reactions on a canvas shared with everyone connected.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Endpoint, "endpoint", "e", cfg.Endpoint, "reaction service websocket url (env: COLLABCANVAS_ENDPOINT)")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "time allowed to connect (env: COLLABCANVAS_HANDSHAKE_TIMEOUT)")
	fs.IntVar(&cfg.Canvas.Width, "width", cfg.Canvas.Width, "canvas width in cells (env: COLLABCANVAS_WIDTH)")
	fs.IntVar(&cfg.Canvas.Height, "height", cfg.Canvas.Height, "canvas height in cells (env: COLLABCANVAS_HEIGHT)")
	fs.Float64Var(&cfg.Canvas.CellWidth, "cell-width", cfg.Canvas.CellWidth, "canvas units per cell, horizontally (env: COLLABCANVAS_CELL_WIDTH)")
	fs.Float64Var(&cfg.Canvas.CellHeight, "cell-height", cfg.Canvas.CellHeight, "canvas units per cell, vertically (env: COLLABCANVAS_CELL_HEIGHT)")
	fs.IntVar(&cfg.Canvas.Capacity, "capacity", cfg.Canvas.Capacity, "reactions kept on the canvas, 0 for no limit (env: COLLABCANVAS_CAPACITY)")
	fs.DurationVar(&cfg.Canvas.Window, "window", cfg.Canvas.Window, "remove reactions older than this, 0 to keep them (env: COLLABCANVAS_WINDOW)")
	fs.BoolVar(&cfg.Canvas.LocalEcho, "local-echo", cfg.Canvas.LocalEcho, "show own reactions without waiting for the service (env: COLLABCANVAS_LOCAL_ECHO)")
	fs.DurationVar(&cfg.Canvas.Animation, "animation", cfg.Canvas.Animation, "how long new reactions are highlighted (env: COLLABCANVAS_ANIMATION)")
	fs.StringVar(&cfg.Logging.File, "log-file", cfg.Logging.File, "file to append logs to, discarded if empty (env: COLLABCANVAS_LOG_FILE)")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error (env: COLLABCANVAS_LOG_LEVEL)")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "text or json (env: COLLABCANVAS_LOG_FORMAT)")
	fs.BoolP("version", "V", false, "display version and exit (env: COLLABCANVAS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("collabcanvas v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
