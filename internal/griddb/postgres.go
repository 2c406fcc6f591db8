package griddb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gridd/internal/executor"
	"gridd/pkg/platform/sentinel"
)

// Querier is satisfied by *sql.DB, *sql.Conn, and *sql.Tx so query functions
// can run both on executor-leased connections and directly in tests.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PgStore serves ledger state from postgres. All queries run on the executor's
// workers so HTTP goroutines never block on the database directly.
type PgStore struct {
	exec *executor.Executor
}

// NewPgStore wraps the executor in the Store interface.
func NewPgStore(exec *executor.Executor) *PgStore {
	return &PgStore{exec: exec}
}

func (s *PgStore) dispatch(ctx context.Context, op executor.Operation) (any, error) {
	ch, err := s.exec.Dispatch(ctx, op)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *PgStore) ListAgents(ctx context.Context, serviceID string) ([]Agent, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return ListAgents(ctx, conn, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Agent), nil
}

func (s *PgStore) FetchAgent(ctx context.Context, publicKey, serviceID string) (*Agent, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchAgent(ctx, conn, publicKey, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Agent), nil
}

func (s *PgStore) ListOrganizations(ctx context.Context, serviceID string) ([]Organization, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return ListOrganizations(ctx, conn, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Organization), nil
}

func (s *PgStore) FetchOrganization(ctx context.Context, orgID, serviceID string) (*Organization, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchOrganization(ctx, conn, orgID, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Organization), nil
}

func (s *PgStore) ListProducts(ctx context.Context, serviceID string) ([]Product, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return ListProducts(ctx, conn, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

func (s *PgStore) FetchProduct(ctx context.Context, productID, serviceID string) (*Product, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchProduct(ctx, conn, productID, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

func (s *PgStore) ListSchemas(ctx context.Context, serviceID string) ([]Schema, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return ListSchemas(ctx, conn, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Schema), nil
}

func (s *PgStore) FetchSchema(ctx context.Context, name, serviceID string) (*Schema, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchSchema(ctx, conn, name, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

func (s *PgStore) ListRecords(ctx context.Context, serviceID string) ([]Record, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return ListRecords(ctx, conn, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Record), nil
}

func (s *PgStore) FetchRecord(ctx context.Context, recordID, serviceID string) (*Record, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchRecord(ctx, conn, recordID, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

func (s *PgStore) FetchRecordProperty(ctx context.Context, recordID, name, serviceID string) (*Property, error) {
	v, err := s.dispatch(ctx, func(ctx context.Context, conn *sql.Conn) (any, error) {
		return FetchRecordProperty(ctx, conn, recordID, name, serviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Property), nil
}

// -----------------------------------------------------------------------------
// Query functions. Only current state (end_commit_num = MaxCommitNum) is
// visible through the REST API.
// -----------------------------------------------------------------------------

// ListAgents returns the current agents for a service scope.
func ListAgents(ctx context.Context, q Querier, serviceID string) ([]Agent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT public_key, org_id, active, roles, metadata, service_id
		FROM agents
		WHERE service_id = $1 AND end_commit_num = $2
		ORDER BY public_key`,
		serviceID, MaxCommitNum,
	)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := []Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// FetchAgent returns the current agent with the given public key.
func FetchAgent(ctx context.Context, q Querier, publicKey, serviceID string) (*Agent, error) {
	row := q.QueryRowContext(ctx, `
		SELECT public_key, org_id, active, roles, metadata, service_id
		FROM agents
		WHERE public_key = $1 AND service_id = $2 AND end_commit_num = $3`,
		publicKey, serviceID, MaxCommitNum,
	)

	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %q: %w", publicKey, sentinel.ErrNotFound)
	}
	return agent, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var (
		agent    Agent
		metadata []byte
	)
	err := row.Scan(&agent.PublicKey, &agent.OrgID, &agent.Active,
		pq.Array(&agent.Roles), &metadata, &agent.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	if err := json.Unmarshal(metadata, &agent.Metadata); err != nil {
		return nil, fmt.Errorf("decode agent metadata: %w", err)
	}
	return &agent, nil
}

// ListOrganizations returns the current organizations for a service scope.
func ListOrganizations(ctx context.Context, q Querier, serviceID string) ([]Organization, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT org_id, name, address, metadata, service_id
		FROM organizations
		WHERE service_id = $1 AND end_commit_num = $2
		ORDER BY org_id`,
		serviceID, MaxCommitNum,
	)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	orgs := []Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

// FetchOrganization returns the current organization with the given ID.
func FetchOrganization(ctx context.Context, q Querier, orgID, serviceID string) (*Organization, error) {
	row := q.QueryRowContext(ctx, `
		SELECT org_id, name, address, metadata, service_id
		FROM organizations
		WHERE org_id = $1 AND service_id = $2 AND end_commit_num = $3`,
		orgID, serviceID, MaxCommitNum,
	)

	org, err := scanOrganization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organization %q: %w", orgID, sentinel.ErrNotFound)
	}
	return org, err
}

func scanOrganization(row rowScanner) (*Organization, error) {
	var (
		org      Organization
		metadata []byte
	)
	err := row.Scan(&org.OrgID, &org.Name, &org.Address, &metadata, &org.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	if err := json.Unmarshal(metadata, &org.Metadata); err != nil {
		return nil, fmt.Errorf("decode organization metadata: %w", err)
	}
	return &org, nil
}

// ListProducts returns the current products for a service scope.
func ListProducts(ctx context.Context, q Querier, serviceID string) ([]Product, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, product_namespace, owner, properties, service_id
		FROM products
		WHERE service_id = $1 AND end_commit_num = $2
		ORDER BY product_id`,
		serviceID, MaxCommitNum,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// FetchProduct returns the current product with the given ID.
func FetchProduct(ctx context.Context, q Querier, productID, serviceID string) (*Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT product_id, product_namespace, owner, properties, service_id
		FROM products
		WHERE product_id = $1 AND service_id = $2 AND end_commit_num = $3`,
		productID, serviceID, MaxCommitNum,
	)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %q: %w", productID, sentinel.ErrNotFound)
	}
	return product, err
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		product    Product
		properties []byte
	)
	err := row.Scan(&product.ProductID, &product.ProductNamespace, &product.Owner,
		&properties, &product.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if err := json.Unmarshal(properties, &product.Properties); err != nil {
		return nil, fmt.Errorf("decode product properties: %w", err)
	}
	return &product, nil
}

// ListSchemas returns the current schemas for a service scope.
func ListSchemas(ctx context.Context, q Querier, serviceID string) ([]Schema, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, description, owner, properties, service_id
		FROM grid_schemas
		WHERE service_id = $1 AND end_commit_num = $2
		ORDER BY name`,
		serviceID, MaxCommitNum,
	)
	if err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}
	defer rows.Close()

	schemas := []Schema{}
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, *schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemas: %w", err)
	}
	return schemas, nil
}

// FetchSchema returns the current schema with the given name.
func FetchSchema(ctx context.Context, q Querier, name, serviceID string) (*Schema, error) {
	row := q.QueryRowContext(ctx, `
		SELECT name, description, owner, properties, service_id
		FROM grid_schemas
		WHERE name = $1 AND service_id = $2 AND end_commit_num = $3`,
		name, serviceID, MaxCommitNum,
	)

	schema, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema %q: %w", name, sentinel.ErrNotFound)
	}
	return schema, err
}

func scanSchema(row rowScanner) (*Schema, error) {
	var (
		schema     Schema
		properties []byte
	)
	err := row.Scan(&schema.Name, &schema.Description, &schema.Owner,
		&properties, &schema.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan schema: %w", err)
	}
	if err := json.Unmarshal(properties, &schema.Properties); err != nil {
		return nil, fmt.Errorf("decode schema properties: %w", err)
	}
	return &schema, nil
}

// ListRecords returns the current records for a service scope.
func ListRecords(ctx context.Context, q Querier, serviceID string) ([]Record, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT record_id, schema, owner, custodian, final, service_id
		FROM records
		WHERE service_id = $1 AND end_commit_num = $2
		ORDER BY record_id`,
		serviceID, MaxCommitNum,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.RecordID, &record.Schema, &record.Owner,
			&record.Custodian, &record.Final, &record.ServiceID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// FetchRecord returns the current record with the given ID.
func FetchRecord(ctx context.Context, q Querier, recordID, serviceID string) (*Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT record_id, schema, owner, custodian, final, service_id
		FROM records
		WHERE record_id = $1 AND service_id = $2 AND end_commit_num = $3`,
		recordID, serviceID, MaxCommitNum,
	)

	var record Record
	err := row.Scan(&record.RecordID, &record.Schema, &record.Owner,
		&record.Custodian, &record.Final, &record.ServiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", recordID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &record, nil
}

// FetchRecordProperty returns one tracked property of a record together with
// its reported history.
func FetchRecordProperty(ctx context.Context, q Querier, recordID, name, serviceID string) (*Property, error) {
	row := q.QueryRowContext(ctx, `
		SELECT name, record_id, data_type, reporters, updates, service_id
		FROM record_properties
		WHERE record_id = $1 AND name = $2 AND service_id = $3 AND end_commit_num = $4`,
		recordID, name, serviceID, MaxCommitNum,
	)

	var (
		property Property
		updates  []byte
	)
	err := row.Scan(&property.Name, &property.RecordID, &property.DataType,
		pq.Array(&property.Reporters), &updates, &property.ServiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %q of record %q: %w", name, recordID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan record property: %w", err)
	}
	if err := json.Unmarshal(updates, &property.Updates); err != nil {
		return nil, fmt.Errorf("decode property updates: %w", err)
	}
	return &property, nil
}
