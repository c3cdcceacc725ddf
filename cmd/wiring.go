package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/ai/anthropic"
	"github.com/spigell/talentscout/internal/ai/gemini"
	"github.com/spigell/talentscout/internal/ai/openai"
	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/nominatim"
	"github.com/spigell/talentscout/internal/secrets"
	"github.com/spigell/talentscout/internal/validate"
)

// apiKeyEnv names the environment variable consulted when neither
// llm.api-key-file nor llm.api-key is set.
var apiKeyEnv = map[string]string{
	ai.KindGemini:    "GEMINI_API_KEY",
	ai.KindAnthropic: "ANTHROPIC_API_KEY",
	ai.KindOpenAI:    "OPENAI_API_KEY",
}

// setup builds the logger and reads the config. Failures here are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}

// newBackend selects the LLM backend once. Anything that cannot be built
// degrades to ai.Unconfigured so question generation and grading take their
// offline paths.
func newBackend(ctx context.Context, cfg *LLMConfig, logger *zap.Logger) ai.Backend {
	kind := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch kind {
	case "", ai.KindNone:
		return ai.Unconfigured{}
	case ai.KindGemini, ai.KindAnthropic, ai.KindOpenAI, ai.KindOllama:
	default:
		logger.Warn("unknown llm provider, using offline questions", zap.String("provider", cfg.Provider))
		return ai.Unconfigured{Kind: kind}
	}

	key, err := loadAPIKey(kind, cfg)
	if err != nil && kind != ai.KindOllama {
		logger.Warn("llm api key is not available, using offline questions",
			zap.String("provider", kind),
			zap.Error(err),
			zap.String("hint", "set llm.api-key-file, llm.api-key or "+apiKeyEnv[kind]),
		)
		return ai.Unconfigured{Kind: kind}
	}

	var backend ai.Backend
	switch kind {
	case ai.KindGemini:
		backend, err = gemini.NewGenerator(ctx, key, cfg.Model, logger)
	case ai.KindAnthropic:
		backend, err = anthropic.NewClient(key, cfg.Model, cfg.BaseURL, logger)
	default:
		backend, err = openai.New(openai.Config{
			Kind:    kind,
			BaseURL: cfg.BaseURL,
			APIKey:  key,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
	}
	if err != nil {
		logger.Warn("creating llm backend, using offline questions", zap.String("provider", kind), zap.Error(err))
		return ai.Unconfigured{Kind: kind}
	}

	return backend
}

func loadAPIKey(kind string, cfg *LLMConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  kind + " api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   apiKeyEnv[kind],
	})
}

func newOrchestrator(ctx context.Context, config *Config, log *zap.Logger) *interview.Orchestrator {
	backend := newBackend(ctx, config.LLM, log)
	log.Debug("llm backend selected", zap.String(logger.FieldProvider, backend.Name()))

	opts := config.Interview
	if opts.Model == "" {
		opts.Model = config.LLM.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.LLM.Timeout
	}
	if config.LLM.MaxTokens > 0 {
		opts.MaxTokens = config.LLM.MaxTokens
	}

	return interview.New(backend, ai.NewRetrier(config.LLM.MaxAttempts, log), opts, log)
}

func newValidators(config *Config, log *zap.Logger) *validate.Validators {
	var geocoder validate.Geocoder
	if config.Geocoder.Enabled {
		geocoder = nominatim.New(log, config.Geocoder.URL, config.Geocoder.UserAgent, config.Geocoder.Timeout)
	}

	v := config.Validation
	return validate.New(validate.Options{
		DefaultRegion:    v.DefaultRegion,
		StrictEmail:      v.StrictEmail,
		DomainThreshold:  v.DomainThreshold,
		CountryThreshold: v.CountryThreshold,
		StackThreshold:   v.StackThreshold,
	}, geocoder, nil, log)
}

func describeConfig(config *Config) string {
	return fmt.Sprintf("provider=%s store=%s geocoder=%t language=%s",
		config.LLM.Provider, config.Store.Driver, config.Geocoder.Enabled, config.Language)
}
