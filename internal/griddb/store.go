package griddb

import "context"

// Store is the read surface the REST handlers use. Every method scopes its
// result to a circuit service ID; the empty string selects shared-ledger state.
// Implementations return sentinel.ErrNotFound (optionally wrapped) for missing
// entities so handlers can translate to 404.
type Store interface {
	ListAgents(ctx context.Context, serviceID string) ([]Agent, error)
	FetchAgent(ctx context.Context, publicKey, serviceID string) (*Agent, error)

	ListOrganizations(ctx context.Context, serviceID string) ([]Organization, error)
	FetchOrganization(ctx context.Context, orgID, serviceID string) (*Organization, error)

	ListProducts(ctx context.Context, serviceID string) ([]Product, error)
	FetchProduct(ctx context.Context, productID, serviceID string) (*Product, error)

	ListSchemas(ctx context.Context, serviceID string) ([]Schema, error)
	FetchSchema(ctx context.Context, name, serviceID string) (*Schema, error)

	ListRecords(ctx context.Context, serviceID string) ([]Record, error)
	FetchRecord(ctx context.Context, recordID, serviceID string) (*Record, error)
	FetchRecordProperty(ctx context.Context, recordID, name, serviceID string) (*Property, error)
}
