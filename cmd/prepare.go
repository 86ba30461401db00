package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/prepare"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Validate the interview setup and analyze the resume",
	Run: func(cmd *cobra.Command, _ []string) {
		runPrepare(cmd)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().String("role", "", "job role to interview for")
	prepareCmd.Flags().String("company", "", "company or exam, optional")
	prepareCmd.Flags().String("language", "", "interview language (default English)")
	prepareCmd.Flags().String("modality", "", "voice or text")
	prepareCmd.Flags().Bool("video", false, "send camera snapshots with answers")
	prepareCmd.Flags().String("name", "", "candidate name used by the ice-breaker")
	prepareCmd.Flags().String("resume", "", "path to the resume (pdf, txt or md)")
	prepareCmd.Flags().Bool("skip-moderation", false, "do not validate the role and company with the model")
	prepareCmd.Flags().Bool("list-checks", false, "print the setup checks and exit")

	viper.BindPFlag("prepare.skip-moderation", prepareCmd.Flags().Lookup("skip-moderation"))
}

func runPrepare(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	checks := prepare.DefaultChecks()
	if config.Prepare.SkipModeration {
		prepare.DisableByName(checks, "moderation", "disabled by configuration")
	}

	if listOnly, _ := cmd.Flags().GetBool("list-checks"); listOnly {
		for _, check := range prepare.Describe(checks) {
			state := "enabled"
			if !check.Enabled {
				state = "disabled"
			}
			if check.Reason != "" {
				state += " (" + check.Reason + ")"
			}
			fmt.Printf("%-12s %s\n", check.Name, state)
		}
		return
	}

	draft, err := readDraft(cmd)
	if err != nil {
		logger.Fatal("reading the setup form", zap.Error(err))
	}

	services, err := newAI(ctx, config.AI, nil, logger)
	if err != nil {
		logger.Fatal("building ai services", zap.Error(err))
	}

	deps := prepare.Deps{
		Logger:    logger,
		Validator: services.validator,
		Analyzer:  services.analyzer,
		Questions: services.questions,
	}

	err = prepare.Run(ctx, &prepare.Config{MinLength: config.Prepare.MinLength}, deps, checks, draft)
	var rejected *prepare.RejectedError
	if errors.As(err, &rejected) {
		logger.Fatal("setup rejected", zap.String("check", rejected.Check), zap.String("reason", rejected.Reason))
	}
	if err != nil {
		logger.Fatal("running setup checks", zap.Error(err))
	}

	prep, err := prepare.NewPreparation(draft, time.Now())
	if err != nil {
		logger.Fatal("building the preparation", zap.Error(err))
	}

	st := openStore(config, logger)
	defer st.Close()

	if err := prepare.Save(ctx, st, prep); err != nil {
		logger.Fatal("saving the preparation", zap.Error(err))
	}

	logger.Info("preparation saved",
		zap.String("preparation_id", prep.ID),
		zap.String("job_role", prep.JobRole),
		zap.String("modality", string(prep.Modality)),
	)
	fmt.Println("Practice questions for this role:")
	for i, question := range prep.Questions {
		fmt.Printf("%2d. %s\n", i+1, question)
	}
	fmt.Printf("\nReady. Start the interview with: %s interview --preparation %s\n", app, prep.ID)
}

// readDraft takes the form values from flags and asks for whatever is missing.
func readDraft(cmd *cobra.Command) (*prepare.Draft, error) {
	flags := cmd.Flags()
	value := func(name string) string {
		v, _ := flags.GetString(name)
		return strings.TrimSpace(v)
	}

	var err error
	draft := &prepare.Draft{
		JobRole:       value("role"),
		Company:       value("company"),
		Language:      value("language"),
		CandidateName: value("name"),
	}
	draft.VideoEnabled, _ = flags.GetBool("video")

	if draft.JobRole == "" {
		if draft.JobRole, err = ask("Job role"); err != nil {
			return nil, err
		}
	}

	modality := value("modality")
	if modality == "" {
		selectModality := promptui.Select{
			Label: "How do you want to answer?",
			Items: []string{string(interview.ModalityText), string(interview.ModalityVoice)},
		}
		if _, modality, err = selectModality.Run(); err != nil {
			return nil, err
		}
	}
	if draft.Modality, err = interview.ParseModality(modality); err != nil {
		return nil, err
	}

	resumePath := value("resume")
	if resumePath == "" {
		if resumePath, err = ask("Path to your resume (pdf or txt)"); err != nil {
			return nil, err
		}
	}
	if draft.ResumeText, err = prepare.ReadDocument(resumePath); err != nil {
		return nil, err
	}

	return draft, nil
}

func ask(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("a value is required")
			}
			return nil
		},
	}

	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}
