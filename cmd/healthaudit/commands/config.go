package commands

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Questions     string            `mapstructure:"questions"`
	GoldenAnswers string            `mapstructure:"golden_answers"`
	Guidelines    string            `mapstructure:"guidelines"`
	Description   string            `mapstructure:"description"`
	Workers       int               `mapstructure:"workers"`
	Output        string            `mapstructure:"output"`
	Format        string            `mapstructure:"format"`
	SnapshotDir   string            `mapstructure:"snapshot_dir"`
	Provider      string            `mapstructure:"provider"`
	Target        TargetConfig      `mapstructure:"target"`
	Judge         JudgeConfig       `mapstructure:"judge"`
	UMLS          UMLSConfig        `mapstructure:"umls"`
	PubMed        PubMedConfig      `mapstructure:"pubmed"`
	HuggingFace   HuggingFaceConfig `mapstructure:"huggingface"`
	Cache         CacheConfig       `mapstructure:"cache"`
	RateLimit     RateLimitConfig   `mapstructure:"rate_limit"`
}

type TargetConfig struct {
	Model     string `mapstructure:"model"`
	MockReply string `mapstructure:"mock_reply"`
	BaseURL   string `mapstructure:"base_url"`
}

type JudgeConfig struct {
	Model string `mapstructure:"model"`
}

type UMLSConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type PubMedConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type HuggingFaceConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".healthaudit")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
