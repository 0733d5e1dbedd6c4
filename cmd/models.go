package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/logger"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the configured backend",
	Run: func(_ *cobra.Command, _ []string) {
		listModelsCommand()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func listModelsCommand() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	backend, err := newBackend(ctx, config)
	if err != nil {
		logger.Fatal("creating a backend", zap.Error(err))
	}

	names, err := listModels(ctx, backend)
	if err != nil {
		logger.Fatal("listing models", zap.String("backend", backend.Name()), zap.Error(err))
	}

	if len(names) == 0 {
		logger.Info("no models found", zap.String("backend", backend.Name()))
		return
	}

	for _, name := range names {
		fmt.Println(name)
	}
}
