// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/photo-frame-formatter/internal/config"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, finishing in-flight photos...")
		cancel()
	}()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		logger.Flush()
		os.Exit(1)
	}
}

// loader resolves the effective configuration once flags are parsed
type loader func() (*config.Config, error)

// NewRootCmd builds the command tree around a fresh viper instance
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "photo-frame-format",
		Short: "Normalize photos for a digital photo frame",
		Long: `A tool that rotates, resizes and captions photos from a local folder, a Takeout
archive or a remote photo feed so they display correctly on a digital photo frame.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			logger.SetLevel(v.GetString("log-level"))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	bindFlags(v, rootCmd.PersistentFlags().Lookup, map[string]string{"log-level": "log-level"})

	load := func() (*config.Config, error) {
		return config.Load(v, configFile)
	}

	// Add commands
	rootCmd.AddCommand(newFormatCommand(v, load))
	rootCmd.AddCommand(newAuthCommand(v, load))

	return rootCmd
}

// bindFlags maps config keys to flag names. Unknown flags are a programming
// error and panic.
func bindFlags(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, lookup(name)); err != nil {
			panic(err)
		}
	}
}
