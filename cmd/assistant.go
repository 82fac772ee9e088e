package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/ai/groq"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/secrets"
)

// setup loads the config and builds the logger and the interview service shared by all commands.
func setup(ctx context.Context) (*Config, *zap.Logger, *interview.Service) {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	if config == nil || config.AI == nil || config.Memory == nil || config.Session == nil {
		log.Fatal("config is incomplete")
	}

	opts := logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	}
	if config.Log != nil {
		opts.File = config.Log.File
		opts.MaxSizeMB = config.Log.MaxSizeMB
		opts.MaxBackups = config.Log.MaxBackups
		opts.MaxAgeDays = config.Log.MaxAgeDays
	}

	appLogger, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	assistant, err := newAssistant(ctx, config.AI, appLogger)
	if err != nil {
		appLogger.Fatal("creating the ai assistant", zap.Error(err))
	}

	appLogger.Info("starting the interview-coach",
		zap.String("version", version),
		zap.String(logger.FieldProvider, strings.ToLower(config.AI.Provider)),
		zap.String(logger.FieldModel, assistant.Model()),
		zap.Int("max_turns", config.Memory.MaxTurns),
	)

	return config, appLogger, interview.NewService(assistant, appLogger, config.AI.MaxLogLength)
}

func newAssistant(ctx context.Context, cfg *AIConfig, appLogger *zap.Logger) (ai.Assistant, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", ai.ProviderGroq:
		if cfg.Groq == nil {
			cfg.Groq = &GroqConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "groq api key",
			File:  cfg.Groq.APIKeyFile,
			Value: cfg.Groq.APIKey,
			Env:   "GROQ_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.groq.api-key-file or GROQ_API_KEY)", err)
		}

		client, err := groq.New(apiKey, cfg.Groq.Model, cfg.Groq.Timeout, appLogger)
		if err != nil {
			return nil, err
		}
		if cfg.Groq.URL != "" {
			client.APIURL = cfg.Groq.URL
		}
		if cfg.Temperature != nil {
			client.SetTemperature(*cfg.Temperature)
		}
		return client, nil

	case ai.ProviderGemini:
		if cfg.Gemini == nil {
			cfg.Gemini = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.Gemini.APIKeyFile,
			Value: cfg.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
			appLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)),
		)
		if err != nil {
			return nil, err
		}
		if cfg.Temperature != nil {
			generator.SetTemperature(float32(*cfg.Temperature))
		}
		return generator, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
