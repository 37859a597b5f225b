package devops

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// AppConfig is the deployment configuration, stored as yaml in a single
// SSM parameter. Environment variables override individual fields so a
// local run needs no AWS access at all.
type AppConfig struct {
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redisAddr"`
	SigningSecret string `yaml:"signingSecret"`
	ExportBucket  string `yaml:"exportBucket"`
	ListenAddr    string `yaml:"listenAddr"`
}

var (
	once    sync.Once
	loaded  AppConfig
	loadErr error
)

const parameterName = "rosterhub/config"

// LoadConfig reads the SSM parameter once and applies env overrides.
// When DSN is set in the environment the SSM fetch is skipped entirely.
func LoadConfig(ctx context.Context) (AppConfig, error) {
	once.Do(func() {
		if os.Getenv("DSN") == "" {
			loaded, loadErr = fetchFromSSM(ctx)
			if loadErr != nil {
				return
			}
		}
		applyEnvOverrides(&loaded)
		if loaded.ListenAddr == "" {
			loaded.ListenAddr = "0.0.0.0:8090"
		}
	})

	return loaded, loadErr
}

func fetchFromSSM(ctx context.Context) (AppConfig, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return AppConfig{}, fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return AppConfig{}, fmt.Errorf("get parameter: %w", err)
	}

	var parsed AppConfig
	if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal yaml: %w", err)
	}

	return parsed, nil
}

func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("DSN"); v != "" {
		c.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("ROSTERHUB_SIGNING_SECRET"); v != "" {
		c.SigningSecret = v
	}
	if v := os.Getenv("EXPORT_BUCKET"); v != "" {
		c.ExportBucket = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
}
