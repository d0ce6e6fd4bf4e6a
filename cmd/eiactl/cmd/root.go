// Package cmd implements the eiactl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"eia-drafter/internal/config"
	"eia-drafter/internal/domain"
	"eia-drafter/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "eiactl",
	Short: "Draft EIA validation reports and decision minutes from PDF submissions",
	Long: `eiactl runs the report pipeline locally: it extracts the submitted PDFs,
asks the generation service for the audit and/or the decision draft and writes
the resulting .docx files.

Settings come from the same environment variables as the server, overridden by
EIA_* variables, an optional config file and flags.`,
	SilenceUsage: true,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./eiactl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("backend", "", "generation backend: gemini or vertex")
	rootCmd.PersistentFlags().String("project-id", "", "Google Cloud project for the vertex backend")
	rootCmd.PersistentFlags().String("location", "", "Google Cloud location for the vertex backend")

	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("project_id", rootCmd.PersistentFlags().Lookup("project-id"))
	_ = viper.BindPFlag("location", rootCmd.PersistentFlags().Lookup("location"))

	rootCmd.AddCommand(modelsCmd)
	for _, c := range newRunCommands() {
		rootCmd.AddCommand(c)
	}
}

func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("eiactl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// EIA_GEMINI_API_KEY -> gemini_api_key
	viper.SetEnvPrefix("EIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: config file error: %v\n", err)
		}
	}
}

// loadConfig overlays viper settings on the environment configuration.
func loadConfig() *config.AppConfig {
	cfg := config.LoadAppConfig()
	if v := viper.GetString("backend"); v != "" {
		cfg.GenAIBackend = strings.ToLower(v)
	}
	if v := viper.GetString("gemini_api_key"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := viper.GetString("project_id"); v != "" {
		cfg.GCPProjectID = v
	}
	if v := viper.GetString("location"); v != "" {
		cfg.GCPLocation = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.DefaultModel = v
	}
	if viper.IsSet("temperature") {
		cfg.Temperature = float32(viper.GetFloat64("temperature"))
	}
	if v := viper.GetInt("max_attempts"); v > 0 {
		cfg.MaxAttempts = v
	}
	// Runs from the command line have no user token; history stays local.
	cfg.SupabaseURL = ""
	cfg.SupabaseKey = ""
	cfg.ReportsBucket = ""
	return cfg
}

// newLogger writes human-readable logs to stderr so stdout stays scriptable.
func newLogger() (domain.Logger, func()) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	base := zap.New(core)
	return logger.NewFromZap(base), func() { _ = base.Sync() }
}
