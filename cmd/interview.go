package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/console"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/logger"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/prepare"
)

const (
	commandEnd    = ":end"
	commandMute   = ":mute"
	commandUnmute = ":unmute"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("preparation", "p", "latest", "preparation id to start from")
	interviewCmd.Flags().String("modality", "", "override the prepared modality: voice or text")
	interviewCmd.Flags().String("snapshot", "", "still image used as the camera frame")
}

func runInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	preparationID, _ := cmd.Flags().GetString("preparation")
	prep, err := prepare.Load(ctx, st, preparationID)
	if err != nil {
		logger.Fatal("loading the preparation",
			zap.Error(err),
			zap.String("hint", "run the prepare command first"),
		)
	}

	sc := prep.SessionContext()
	if override, _ := cmd.Flags().GetString("modality"); override != "" {
		if sc.Modality, err = interview.ParseModality(override); err != nil {
			logger.Fatal("parsing modality", zap.Error(err))
		}
	}

	var snapshotter interview.Snapshotter
	if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
		snapshotter = console.FileSnapshotter{Path: path}
		sc.VideoEnabled = true
	}

	services, err := newAI(ctx, config.AI, nil, logger)
	if err != nil {
		logger.Fatal("building ai services", zap.Error(err))
	}

	finished := make(chan *interview.Record, 1)
	hooks := interview.Hooks{
		OnState: func(from, to interview.State) {
			logger.Debug("state changed", zap.String("from", string(from)), zap.String("to", string(to)))
		},
		OnFeedback: func(fb ai.Feedback) {
			console.WriteFeedback(os.Stdout, fb)
		},
		OnFinished: func(record *interview.Record) {
			finished <- record
		},
	}
	notices := interview.NoticeFunc(func(n interview.Notice) {
		fmt.Fprintf(os.Stderr, "! %s\n", n.Message)
	})

	deps := interview.Deps{
		Agent:       services.agent,
		IceBreaker:  services.iceBreaker,
		Snapshotter: snapshotter,
		Store:       st,
	}

	var capture *console.LineCapture
	if sc.Modality == interview.ModalityVoice {
		capture = console.NewLineCapture(os.Stdin, logger)
		deps.Capture = capture
		deps.Renderer = console.NewRenderer(os.Stdout, "Interviewer: ")
	} else {
		hooks.OnQuestion = func(question string) {
			fmt.Printf("\nInterviewer: %s\n", question)
		}
	}

	session, err := interview.NewSession(sc, config.interviewConfig(), deps,
		interview.WithLogger(logger),
		interview.WithHooks(hooks),
		interview.WithNoticeSink(notices),
	)
	if err != nil {
		logger.Fatal("creating the session", zap.Error(err))
	}

	logger.Info("starting the interview",
		zap.String("session_id", session.ID()),
		zap.String("version", version),
		zap.String("job_role", sc.JobRole),
	)

	if capture != nil {
		err = runVoice(ctx, session, capture)
	} else {
		err = runText(ctx, session)
	}
	if err != nil {
		logger.Error("interview interrupted", zap.Error(err))
	}

	if err := session.End(context.Background()); err != nil {
		logger.Error("ending the session", zap.Error(err))
	}
	<-session.Done()

	record := <-finished
	fmt.Println()
	if err := console.WriteSummary(os.Stdout, record); err != nil {
		logger.Error("printing the summary", zap.Error(err))
	}
}

// runText asks for every answer with a prompt. A failed agent call keeps the
// answer as the prompt default so it can be sent again.
func runText(ctx context.Context, session *interview.Session) error {
	if err := session.Start(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		prompt := promptui.Prompt{
			Label:     "Your answer (" + commandEnd + " to finish)",
			Default:   session.Transcript(),
			AllowEdit: true,
		}

		answer, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) == commandEnd {
			return nil
		}

		result, err := session.Submit(ctx, answer)
		switch {
		case errors.Is(err, interview.ErrFinished):
			return nil
		case err != nil:
			// The notice sink already told the candidate.
			continue
		case result.Finished:
			fmt.Printf("\nInterviewer: %s\n", result.NextQuestion)
			return nil
		}
	}
}

// runVoice lets the line capture drive the session until it finishes, the
// input closes or the process is interrupted.
func runVoice(ctx context.Context, session *interview.Session, capture *console.LineCapture) error {
	capture.OnCommand(commandEnd, func() {
		session.End(ctx)
	})
	capture.OnCommand(commandMute, func() { session.SetMuted(true) })
	capture.OnCommand(commandUnmute, func() { session.SetMuted(false) })

	fmt.Printf("Type your answer, a pause of a few seconds sends it. %s finishes the interview.\n", commandEnd)
	if err := session.Start(ctx); err != nil {
		return err
	}

	select {
	case <-session.Done():
	case <-capture.Closed():
	case <-ctx.Done():
	}
	return nil
}
