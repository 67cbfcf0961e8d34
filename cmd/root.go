// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/config"
	"github.com/hexbolt9/limpet-cli/internal/observability"
)

var (
	cfgFile    string
	engineFlag string

	// appCfg is populated by the persistent pre-run and shared by the
	// subcommands.
	appCfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "limpet",
	Short: "Limpet clicks web UI elements that refuse to be clicked.",
	Long: `Limpet is a browser-automation CLI built around a resilient click
primitive: wait for the element, let the page settle, click, and fall
back to a forced click and alternative locators when the UI fights back.`,
	// Version is dynamically set at build time. See cmd/version.go.
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(); err != nil {
			return err
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			// Fall back to a minimal logger so the failure is visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "limpet"})
			return err
		}
		appCfg = cfg

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting limpet.",
			zap.String("version", Version),
			zap.String("engine", cfg.Browser.Engine))
		return nil
	},
}

// Execute runs the root command with signal-aware cancellation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command failed.", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "browser engine: chromedp, playwright or mock")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig layers defaults, an optional config file, a local
// .env file and LIMPET_* environment variables into viper.
func initializeConfig() error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LIMPET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}

	if engineFlag != "" {
		v.Set("browser.engine", engineFlag)
	}
	return nil
}
