package cmd

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/console"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
)

var sessionKeyPrefix = interview.RecordKey("")

var summaryCmd = &cobra.Command{
	Use:   "summary [session-id]",
	Short: "Print the feedback of a finished interview",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runSummary(args)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(args []string) {
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

	var sessionID string
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		keys, err := st.Keys(ctx, sessionKeyPrefix)
		if err != nil {
			logger.Fatal("listing sessions", zap.Error(err))
		}
		if len(keys) == 0 {
			logger.Info("exiting", zap.String("reason", "no finished interviews found"))
			return
		}

		ids := make([]string, 0, len(keys))
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, sessionKeyPrefix))
		}

		sessionPrompt := promptui.Select{
			Label: "Choose an interview and press ENTER",
			Items: ids,
		}
		if _, sessionID, err = sessionPrompt.Run(); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	record, err := interview.LoadRecord(ctx, st, sessionID)
	if err != nil {
		logger.Fatal("loading the interview", zap.Error(err))
	}

	if err := console.WriteSummary(os.Stdout, record); err != nil {
		logger.Fatal("printing the summary", zap.Error(err))
	}
}
