// cmd/classforge/root.go
// Root command for the `classforge` CLI. Wires common flags, global
// initialisation (logger, config file) and the process/version
// sub-commands. Grounded on the teacher's cmd/flarego/root.go: same
// PersistentPreRunE-initialises-the-logger-once shape, same
// cobra.OnInitialize(initConfig) viper wiring, same --config/--log-json
// flag pair.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nodeforge/classforge/internal/logging"
)

var (
	cfgFile string
	logJSON bool

	rootCmd = &cobra.Command{
		Use:   "classforge",
		Short: "classforge — coordinated bytecode transformation processor",
		Long:  `classforge runs independently authored bytecode transformers over a corpus of classfiles in dependency-ordered rounds.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logging.Initialised() {
				return nil
			}
			return initLogger()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file (YAML/TOML/JSON)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Enable JSON log output (default is human-friendly console)")

	rootCmd.AddCommand(newProcessCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Execute is called by main.main().
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// initConfig reads the config file and env variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "classforge"))
		}
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CLASSFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Sugar().Infof("using config file: %s", viper.ConfigFileUsed())
	}
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	if !logJSON {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zap.TimeEncoder(func(t time.Time, enc zap.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(time.RFC3339))
	})

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	logging.Set(logger)
	return nil
}
