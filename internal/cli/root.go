package cli

import (
	"github.com/Makepad-fr/qrgen/internal/tui"
	"github.com/Makepad-fr/qrgen/internal/ui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	cobra.OnInitialize(loadDotEnv)
}

// loadDotEnv reads .env from the working directory when present. A missing
// file is normal.
func loadDotEnv() {
	_ = godotenv.Load()
}

// Execute runs the CLI and returns an exit code (0 ok, 1 error).
func Execute() int {
	a := newApp()
	defer a.close()
	if err := newRootCmd(a).Execute(); err != nil {
		ui.Fail(a.errOut, err.Error())
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "qrgen",
		Short: "Generate and manage a personal list of QR codes",
		Long: `qrgen turns URLs into QR codes and keeps a short list of them.

Run without arguments for the interactive page, or use the subcommands
to script the same operations.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.logToFile(); err != nil {
				return err
			}
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			return tui.Run(ctrl, tui.Options{Logger: a.log})
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default <data dir>/config.yaml)")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory holding the list, config and log")
	pf.StringVar(&a.slot, "slot", "", "local slot backend: file or sqlite")
	pf.StringVar(&a.mirrorURL, "mirror-url", "", "base URL of the remote mirror")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.theme, "theme", "", "classic, neon or mono")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newExportCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newMirrorCmd(a),
	)
	return root
}
