// Package vault provides integration.CredentialVault implementations.
//
// Providers:
//   - aws: one AWS Secrets Manager secret per reference, JSON encoded
//   - local: sealed rows in the integration_credentials table
//   - memory: process-local map for tests and demos
//
// Credential values are never logged. Only references and operation names are.
package vault
