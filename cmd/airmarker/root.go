package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ayusman/airmarker/internal/config"
	"github.com/ayusman/airmarker/internal/logging"
)

// cli carries the loaded configuration from the root command to its
// subcommands.
type cli struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "airmarker",
		Short:         "Draw in the air with your index finger",
		Long:          "airmarker turns a webcam into a drawing surface: raise two fingers to pick a color from the toolbar, one finger to draw, an open palm to undo, and press v for voice commands.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDrawing(cmd.Context(), c.cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ~/.airmarker/config.toml)")
	pf.String("store", "", "path of the SQLite database")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	c.bind(pf.Lookup("store"), "store.path")
	c.bind(pf.Lookup("log-level"), "log.level")

	f := rootCmd.Flags()
	f.Int("camera", 0, "camera device id")
	f.String("save-path", "", "file the canvas is saved to and restored from")
	f.String("toolbar-dir", "", "directory of toolbar header images")
	f.Bool("undo-repeat", false, "undo on every frame the open palm is held")
	f.Bool("server", false, "serve the HTTP viewer")
	f.String("addr", "", "HTTP viewer listen address")
	f.Bool("mdns", false, "advertise the HTTP viewer over mDNS")
	f.Bool("tray", false, "show the system tray menu")
	c.bind(f.Lookup("camera"), "camera.id")
	c.bind(f.Lookup("save-path"), "canvas.save_path")
	c.bind(f.Lookup("toolbar-dir"), "toolbar.dir")
	c.bind(f.Lookup("undo-repeat"), "gesture.undo_repeat")
	c.bind(f.Lookup("server"), "server.enabled")
	c.bind(f.Lookup("addr"), "server.addr")
	c.bind(f.Lookup("mdns"), "server.mdns")
	c.bind(f.Lookup("tray"), "tray.enabled")

	rootCmd.AddCommand(
		newSavesCmd(c),
		newExportCmd(c),
		newConfigCmd(c),
	)

	return rootCmd
}

// load reads the configuration and sets up logging. Flags only override
// the file and environment when they were given explicitly.
func (c *cli) load() error {
	cfg, err := config.Load(c.v, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return nil
}

func (c *cli) bind(flag *pflag.Flag, key string) {
	if err := c.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
