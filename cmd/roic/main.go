// Command roic prints the financial facts and ROIC of one company's annual
// report, and queries the local cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/horiken1977/roic-sub001/pkg/app"
	"github.com/horiken1977/roic-sub001/pkg/config"
	"github.com/horiken1977/roic-sub001/pkg/logging"
)

type globalFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "roic",
		Short:         "Extract financial facts from EDINET annual reports and compute ROIC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env", "", "path to a .env file")

	root.AddCommand(newAnalyzeCmd(&g), newSearchCmd(&g), newCachedCmd(&g))
	return root
}

// open loads the configuration and wires the services. Logs go to stderr so
// stdout stays parseable.
func (g *globalFlags) open() (*app.App, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return app.New(cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "roic: %v\n", err)
		os.Exit(1)
	}
}
