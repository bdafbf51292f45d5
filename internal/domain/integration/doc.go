// Package integration contains the Integration bounded context.
// This context manages connections to external commerce platforms and the
// synchronization of their catalogs and orders into the local schema.
//
// Key concepts:
//   - Integration: a tenant's connection to Shopify, WooCommerce or Amazon FBA
//   - Credentials: platform secrets, held only in a CredentialVault
//   - Connector: port implemented per platform in the infrastructure layer
//   - SyncRun: the recorded outcome of one sync job
//   - WebhookEvent: a delivered webhook, stored to reject replays
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
