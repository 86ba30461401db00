package cmd

import (
	"context"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/prepare"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete stored preparations and interview records",
	Run: func(cmd *cobra.Command, _ []string) {
		runClear(cmd)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// openStore opens the SQLite store from the storage section or exits.
func openStore(config *Config, logger *zap.Logger) *store.Store {
	st, err := store.Open(config.Storage.DataDir)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("data_dir", config.Storage.DataDir))
	}

	versions, err := st.AppliedMigrations()
	if err != nil {
		logger.Fatal("reading the store schema", zap.Error(err))
	}
	logger.Debug("store ready", zap.String("data_dir", config.Storage.DataDir), zap.Ints("migrations", versions))

	return st
}

func runClear(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := openStore(config, logger)
	defer st.Close()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirm := promptui.Select{
			Label: "Delete every preparation and interview record?",
			Items: []string{PromptNo, PromptYes},
		}
		_, answer, err := confirm.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if answer != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	deleted, err := clearStore(ctx, st)
	if err != nil {
		logger.Fatal("clearing the store", zap.Error(err))
	}
	logger.Info("store cleared", zap.Int("deleted", deleted))
}

type keyDeleter interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// clearStore removes preparations, including the latest pointer, and session records.
func clearStore(ctx context.Context, st keyDeleter) (int, error) {
	deleted := 0
	for _, prefix := range []string{prepare.Key(""), interview.RecordKey("")} {
		keys, err := st.Keys(ctx, prefix)
		if err != nil {
			return deleted, err
		}
		for _, key := range keys {
			if err := st.Delete(ctx, key); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
