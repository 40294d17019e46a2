// Package main 是 diffkit 命令行入口：建词典、抽取词袋特征、训练线性基线、网络打分与评估。
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/diffkit/config"
	"github.com/rushteam/diffkit/pkg/logger"
)

// Version 构建时通过 ldflags 注入
var Version = "dev"

var (
	humanOutput bool
	configPath  string
	logLevel    string
	logFile     string
)

// 由 PersistentPreRunE 初始化，子命令直接使用
var (
	appConfig *config.Config
	appLogger = zap.NewNop()
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return reportError(err)
	}
	return ExitSuccess
}

var rootCmd = &cobra.Command{
	Use:   "diffkit",
	Short: "Question difficulty prediction toolkit",
	Long: `diffkit predicts the difficulty of reading-comprehension questions.

It builds a word dictionary and bag-of-words features from JSON-lines corpora,
fits a linear baseline, scores examples with a convolutional network and
evaluates predictions with Pearson correlation (PCC) and degree of agreement (DOA).
All commands print JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLogger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.Version = Version
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	appConfig = cfg
	appLogger = log.Named(cmd.Name())
	return nil
}
