// Package models contains the GORM persistence models.
//
// Domain entities carry no gorm tags; each model here maps one table and
// converts to and from its domain type with ToDomain and FromDomain.
// Timestamps are stored in UTC.
package models

// AllModels lists every model in dependency order. Used by AutoMigrate in
// tests and by the seed command against a fresh database.
func AllModels() []any {
	return []any{
		&SupplierModel{},
		&ProductModel{},
		&VariantModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&IntegrationModel{},
		&SyncRunModel{},
		&WebhookEventModel{},
		&CredentialModel{},
		&TenantSettingModel{},
	}
}
