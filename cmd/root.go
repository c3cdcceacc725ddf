package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/stack"
	"github.com/spigell/talentscout/internal/store"
	"github.com/spigell/talentscout/internal/validate"
)

const (
	app       = "talentscout"
	envPrefix = "TALENTSCOUT"
)

type Config struct {
	Language   string            `mapstructure:"language"`
	LLM        *LLMConfig        `mapstructure:"llm"`
	Interview  interview.Options `mapstructure:"interview"`
	Validation *ValidationConfig `mapstructure:"validation"`
	Geocoder   *GeocoderConfig   `mapstructure:"geocoder"`
	Store      store.Config      `mapstructure:"store"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api-key"`
	APIKeyFile  string        `mapstructure:"api-key-file"`
	BaseURL     string        `mapstructure:"base-url"`
	MaxAttempts int           `mapstructure:"max-attempts"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ValidationConfig struct {
	DefaultRegion    string  `mapstructure:"default-region"`
	StrictEmail      bool    `mapstructure:"strict-email"`
	DomainThreshold  float64 `mapstructure:"domain-threshold"`
	CountryThreshold float64 `mapstructure:"country-threshold"`
	StackThreshold   float64 `mapstructure:"stack-threshold"`
}

type GeocoderConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscout is a terminal screening assistant that collects candidate details and runs a short technical interview",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	opts := interview.DefaultOptions()

	v.SetDefault("language", candidate.DefaultLanguage)

	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.base-url", "")
	v.SetDefault("llm.max-attempts", 5)
	v.SetDefault("llm.max-tokens", 0)
	v.SetDefault("llm.timeout", opts.Timeout)

	v.SetDefault("interview.questions-per-topic", opts.QuestionsPerTopic)
	v.SetDefault("interview.max-topics", opts.MaxTopics)
	v.SetDefault("interview.temperature", opts.Temperature)
	v.SetDefault("interview.grade-temperature", opts.GradeTemperature)
	v.SetDefault("interview.evaluate-answers", opts.EvaluateAnswers)
	v.SetDefault("interview.default-topic", opts.DefaultTopic)
	v.SetDefault("interview.model", "")
	v.SetDefault("interview.timeout", opts.Timeout)
	v.SetDefault("interview.max-tokens", opts.MaxTokens)

	v.SetDefault("validation.default-region", "US")
	v.SetDefault("validation.strict-email", false)
	v.SetDefault("validation.domain-threshold", validate.DefaultDomainThreshold)
	v.SetDefault("validation.country-threshold", validate.DefaultCountryThreshold)
	v.SetDefault("validation.stack-threshold", stack.DefaultThreshold)

	v.SetDefault("geocoder.enabled", false)
	v.SetDefault("geocoder.url", "")
	v.SetDefault("geocoder.user-agent", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)

	v.SetDefault("store.driver", store.DriverFile)
	v.SetDefault("store.dir", store.DefaultDir)
	v.SetDefault("store.redis-url", "")
	v.SetDefault("store.prefix", store.DefaultPrefix)
	v.SetDefault("store.dsn", "")
}

// bindEnv maps llm.api-key to TALENTSCOUT_LLM_API_KEY and so on.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	bindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.LLM == nil {
		config.LLM = &LLMConfig{}
	}
	if config.Validation == nil {
		config.Validation = &ValidationConfig{}
	}
	if config.Geocoder == nil {
		config.Geocoder = &GeocoderConfig{}
	}

	return config, nil
}
