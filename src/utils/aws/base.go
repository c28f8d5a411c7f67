package aws_handler

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type AWSHandler struct {
	SecretManager *SecretManager
}

func NewAWSHandler(ctx context.Context, region string) (*AWSHandler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &AWSHandler{
		SecretManager: NewSecretManager(secretsmanager.NewFromConfig(awsCfg)),
	}, nil
}
