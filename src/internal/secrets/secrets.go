// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package secrets locates the Safe Browsing API key.
//
// The key comes from the environment or from an AWS Secrets Manager secret.
// Secrets Manager values may be a raw string or a JSON object holding the
// key under one of [JSONKeys].
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// EnvKeys are the environment variables checked for the API key, in order.
var EnvKeys = []string{"GOOGLE_API_KEY", "google_api_key"}

// JSONKeys are the fields checked in a JSON secret value, in order.
var JSONKeys = []string{"google_api_key", "GOOGLE_API_KEY", "apiKey", "api_key", "value"}

var (
	// ErrEmptySecret means the secret exists but holds no usable key.
	ErrEmptySecret = errors.New("secrets: secret holds no API key")

	// ErrMissingSecretID is returned when no secret ID is given.
	ErrMissingSecretID = errors.New("secrets: secret ID is required")
)

// FromEnv returns the first non-empty value of [EnvKeys] using lookup.
func FromEnv(lookup func(string) (string, bool)) (string, bool) {
	for _, k := range EnvKeys {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// SecretsManagerAPI is the part of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads the API key from AWS Secrets Manager.
type AWSProvider struct {
	client SecretsManagerAPI
}

// NewAWSProvider loads the default AWS configuration. An empty region defers
// to the SDK's usual region resolution.
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: loading aws config: %w", err)
	}
	return NewAWSProviderWithClient(secretsmanager.NewFromConfig(awsCfg)), nil
}

// NewAWSProviderWithClient wraps an existing client.
func NewAWSProviderWithClient(client SecretsManagerAPI) *AWSProvider {
	return &AWSProvider{client: client}
}

// APIKey fetches secretID and extracts the key from it.
func (p *AWSProvider) APIKey(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", ErrMissingSecretID
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("secrets: getting secret %s: %w", secretID, err)
	}

	var raw string
	switch {
	case out.SecretString != nil:
		raw = *out.SecretString
	case out.SecretBinary != nil:
		raw = string(out.SecretBinary)
	}

	if key := extract(raw); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s", ErrEmptySecret, secretID)
}

// extract returns the key from a JSON object value, or the trimmed raw value.
func extract(raw string) string {
	raw = strings.TrimSpace(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return raw
	}
	for _, k := range JSONKeys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
