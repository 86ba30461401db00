package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/utils"
)

const (
	app = "interview-coach"

	defaultDataDir = ".interview-coach"
	defaultListen  = "127.0.0.1:8080"

	defaultIdleTimeout = 30 * time.Minute
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Interview *InterviewConfig `mapstructure:"interview"`
	Prepare   *PrepareConfig   `mapstructure:"prepare"`
	Storage   *StorageConfig   `mapstructure:"storage"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeys      []string `mapstructure:"api-keys"`
	APIKeyFiles  []string `mapstructure:"api-key-files"`
	Model        string   `mapstructure:"model"`
	MaxLogLength int      `mapstructure:"max-log-length"`
	Temperature  float32  `mapstructure:"temperature"`
}

type InterviewConfig struct {
	SilenceWindow   time.Duration `mapstructure:"silence-window"`
	TargetExchanges int           `mapstructure:"target-exchanges"`
	SnapshotWarmup  time.Duration `mapstructure:"snapshot-warmup"`
	Opener          string        `mapstructure:"opener"`
}

type PrepareConfig struct {
	MinLength      int  `mapstructure:"min-length"`
	SkipModeration bool `mapstructure:"skip-moderation"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data-dir"`
}

type ServerConfig struct {
	Listen      string        `mapstructure:"listen"`
	Metrics     bool          `mapstructure:"metrics"`
	IdleTimeout time.Duration `mapstructure:"idle-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-coach runs AI mock interviews with per-answer feedback",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-files", "GEMINI_API_KEY_FILES"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILES environment variable: %v", err)
	}
	if err := viper.BindEnv("storage.data-dir", "INTERVIEW_COACH_DATA_DIR"); err != nil {
		log.Fatalf("binding INTERVIEW_COACH_DATA_DIR environment variable: %v", err)
	}

	defaults := interview.DefaultConfig()
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("interview.silence-window", defaults.SilenceWindow)
	viper.SetDefault("interview.target-exchanges", defaults.TargetExchanges)
	viper.SetDefault("interview.snapshot-warmup", defaults.SnapshotWarmup)
	viper.SetDefault("interview.opener", defaults.Opener)
	viper.SetDefault("storage.data-dir", defaultDataDir)
	viper.SetDefault("server.listen", defaultListen)
	viper.SetDefault("server.idle-timeout", defaultIdleTimeout)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit --config a missing file is fine: env and defaults
	// are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	config.AI.Gemini.APIKeyFiles = flattenList(config.AI.Gemini.APIKeyFiles)
	config.AI.Gemini.APIKeys = flattenList(config.AI.Gemini.APIKeys)

	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.Prepare == nil {
		config.Prepare = &PrepareConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{DataDir: defaultDataDir}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{Listen: defaultListen, IdleTimeout: defaultIdleTimeout}
	}

	return config, nil
}

// interviewConfig converts the interview section, leaving zero values to the session defaults.
func (c *Config) interviewConfig() interview.Config {
	return interview.Config{
		SilenceWindow:   c.Interview.SilenceWindow,
		TargetExchanges: c.Interview.TargetExchanges,
		SnapshotWarmup:  c.Interview.SnapshotWarmup,
		Opener:          c.Interview.Opener,
	}
}

// flattenList accepts both YAML lists and comma separated env values.
func flattenList(items []string) []string {
	var result []string
	for _, item := range items {
		result = append(result, utils.SplitList(item)...)
	}
	return result
}
