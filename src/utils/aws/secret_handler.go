package aws_handler

import (
	"context"
	"encoding/json"
	"fmt"

	appconfig "portfolio/src/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the part of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type SecretManager struct {
	svc SecretsManagerAPI
}

func NewSecretManager(svc SecretsManagerAPI) *SecretManager {
	return &SecretManager{svc: svc}
}

func (s *SecretManager) GetSecretValue(ctx context.Context, secretId string) (string, error) {
	result, err := s.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	})
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretId)
	}
	return *result.SecretString, nil
}

// AppSecrets is the JSON document stored under secrets.awsSecretId. Empty fields leave the config untouched.
type AppSecrets struct {
	DatabasePassword string `json:"databasePassword"`
	RedisPassword    string `json:"redisPassword"`
	JWTSecret        string `json:"jwtSecret"`
}

// ApplySecrets reads the application secret document and overrides the matching config values.
func (s *SecretManager) ApplySecrets(ctx context.Context, cfg *appconfig.Config) error {
	raw, err := s.GetSecretValue(ctx, cfg.Secrets.AWSSecretID)
	if err != nil {
		return fmt.Errorf("failed to read secret %s: %w", cfg.Secrets.AWSSecretID, err)
	}

	var secrets AppSecrets
	if err := json.Unmarshal([]byte(raw), &secrets); err != nil {
		return fmt.Errorf("secret %s is not a valid JSON document: %w", cfg.Secrets.AWSSecretID, err)
	}

	if secrets.DatabasePassword != "" {
		cfg.Databases.SQL.Password = secrets.DatabasePassword
	}
	if secrets.RedisPassword != "" {
		cfg.Databases.Redis.Password = secrets.RedisPassword
	}
	if secrets.JWTSecret != "" {
		cfg.Auth.JWTSecret = secrets.JWTSecret
	}
	return nil
}

// LoadSecrets applies the AWS secret document to cfg when secrets.awsSecretId is set.
func LoadSecrets(ctx context.Context, cfg *appconfig.Config) error {
	if cfg.Secrets.AWSSecretID == "" {
		return nil
	}
	handler, err := NewAWSHandler(ctx, cfg.Secrets.AWSRegion)
	if err != nil {
		return fmt.Errorf("failed to create AWS handler: %w", err)
	}
	return handler.SecretManager.ApplySecrets(ctx, cfg)
}
