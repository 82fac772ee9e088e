package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-coach/internal/conversation"
)

const (
	app = "interview-coach"
)

type Config struct {
	Listen  string         `mapstructure:"listen"`
	Memory  *MemoryConfig  `mapstructure:"memory"`
	AI      *AIConfig      `mapstructure:"ai"`
	Session *SessionConfig `mapstructure:"session"`
	Log     *LogConfig     `mapstructure:"log"`
}

type MemoryConfig struct {
	MaxTurns int `mapstructure:"max-turns"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	Temperature  *float64      `mapstructure:"temperature"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Groq         *GroqConfig   `mapstructure:"groq"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GroqConfig struct {
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model"`
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	SecureCookie bool          `mapstructure:"secure-cookie"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age-days"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-coach runs mock job interviews driven by a language model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindEnv("ai.groq.api-key", "GROQ_API_KEY")
	bindEnv("ai.gemini.api-key", "GEMINI_API_KEY")
	bindEnv("listen", "INTERVIEW_COACH_LISTEN")

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("memory.max-turns", conversation.DefaultMaxTurns)
	viper.SetDefault("ai.provider", "groq")
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.groq.model", "llama-3.1-8b-instant")
	viper.SetDefault("ai.groq.timeout", 60*time.Second)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("session.ttl", 2*time.Hour)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func bindEnv(key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Fatalf("binding %s environment variable: %v", env, err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so the file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
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

	return config, nil
}
