package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AWS error codes the vault reacts to
const (
	codeResourceNotFound = "ResourceNotFoundException"
	codeAccessDenied     = "AccessDeniedException"
	codeResourceExists   = "ResourceExistsException"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the vault uses
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// AWSVault stores each credential set as a JSON secret named prefix + ref
type AWSVault struct {
	api      SecretsManagerAPI
	prefix   string
	kmsKeyID string
	logger   *zap.Logger
}

// NewAWSVault loads the default AWS configuration for cfg.AWSRegion.
// A non-empty AWSEndpoint points the client at a local emulator.
func NewAWSVault(ctx context.Context, cfg config.VaultConfig, logger *zap.Logger) (*AWSVault, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	})
	return NewAWSVaultWithAPI(client, cfg.AWSPrefix, cfg.KMSKeyID, logger), nil
}

// NewAWSVaultWithAPI wraps an existing client
func NewAWSVaultWithAPI(api SecretsManagerAPI, prefix, kmsKeyID string, logger *zap.Logger) *AWSVault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AWSVault{api: api, prefix: prefix, kmsKeyID: kmsKeyID, logger: logger}
}

func (v *AWSVault) secretID(ref string) string {
	return v.prefix + strings.TrimPrefix(ref, "/")
}

// Put writes a new secret version, creating the secret on first use
func (v *AWSVault) Put(ctx context.Context, ref string, creds integration.Credentials) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	id := v.secretID(ref)

	_, err = v.api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(id),
		SecretString: aws.String(string(payload)),
	})
	if err == nil {
		return nil
	}
	if errorCode(err) != codeResourceNotFound {
		return v.translate(err, "PutSecretValue", ref)
	}

	input := &secretsmanager.CreateSecretInput{
		Name:         aws.String(id),
		SecretString: aws.String(string(payload)),
		Description:  aws.String("StockPilot integration credentials"),
	}
	if v.kmsKeyID != "" {
		input.KmsKeyId = aws.String(v.kmsKeyID)
	}
	if _, err := v.api.CreateSecret(ctx, input); err != nil {
		if errorCode(err) == codeResourceExists {
			// lost a race with another writer; last write wins
			_, err = v.api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
				SecretId:     aws.String(id),
				SecretString: aws.String(string(payload)),
			})
			return v.translate(err, "PutSecretValue", ref)
		}
		return v.translate(err, "CreateSecret", ref)
	}
	v.logger.Info("Created credential secret", zap.String("ref", ref))
	return nil
}

// Get reads and decodes the current secret version
func (v *AWSVault) Get(ctx context.Context, ref string) (integration.Credentials, error) {
	out, err := v.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(v.secretID(ref)),
	})
	if err != nil {
		return integration.Credentials{}, v.translate(err, "GetSecretValue", ref)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return integration.Credentials{}, integration.ErrCredentialsNotFound
	}

	var creds integration.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return integration.Credentials{}, fmt.Errorf("failed to decode credentials at %s: %w", ref, err)
	}
	return creds, nil
}

// Delete removes the secret without a recovery window
func (v *AWSVault) Delete(ctx context.Context, ref string) error {
	_, err := v.api.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(v.secretID(ref)),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && errorCode(err) == codeResourceNotFound {
		return nil
	}
	return v.translate(err, "DeleteSecret", ref)
}

func (v *AWSVault) translate(err error, operation, ref string) error {
	if err == nil {
		return nil
	}
	switch errorCode(err) {
	case codeResourceNotFound:
		return integration.ErrCredentialsNotFound
	case codeAccessDenied:
		v.logger.Error("Credential vault access denied", zap.String("operation", operation), zap.String("ref", ref))
		return integration.ErrVaultAccessDenied
	}
	v.logger.Error("Credential vault operation failed",
		zap.String("operation", operation),
		zap.String("ref", ref),
		zap.Error(err),
	)
	return fmt.Errorf("%s failed: %w", operation, err)
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

var _ integration.CredentialVault = (*AWSVault)(nil)
