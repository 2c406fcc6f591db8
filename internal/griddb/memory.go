package griddb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gridd/pkg/platform/sentinel"
)

// MemStore is an in-memory Store used by tests and local development. It
// intentionally favors clarity over performance.
type MemStore struct {
	mu         sync.RWMutex
	agents     map[string]Agent
	orgs       map[string]Organization
	products   map[string]Product
	schemas    map[string]Schema
	records    map[string]Record
	properties map[string]Property
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		agents:     make(map[string]Agent),
		orgs:       make(map[string]Organization),
		products:   make(map[string]Product),
		schemas:    make(map[string]Schema),
		records:    make(map[string]Record),
		properties: make(map[string]Property),
	}
}

func scopedKey(serviceID string, parts ...string) string {
	key := serviceID
	for _, p := range parts {
		key += "\x00" + p
	}
	return key
}

// AddAgent seeds an agent.
func (s *MemStore) AddAgent(agent Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[scopedKey(agent.ServiceID, agent.PublicKey)] = agent
}

// AddOrganization seeds an organization.
func (s *MemStore) AddOrganization(org Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[scopedKey(org.ServiceID, org.OrgID)] = org
}

// AddProduct seeds a product.
func (s *MemStore) AddProduct(product Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[scopedKey(product.ServiceID, product.ProductID)] = product
}

// AddSchema seeds a schema.
func (s *MemStore) AddSchema(schema Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[scopedKey(schema.ServiceID, schema.Name)] = schema
}

// AddRecord seeds a record.
func (s *MemStore) AddRecord(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[scopedKey(record.ServiceID, record.RecordID)] = record
}

// AddProperty seeds a record property.
func (s *MemStore) AddProperty(property Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[scopedKey(property.ServiceID, property.RecordID, property.Name)] = property
}

func (s *MemStore) ListAgents(_ context.Context, serviceID string) ([]Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agents := []Agent{}
	for _, agent := range s.agents {
		if agent.ServiceID == serviceID {
			agents = append(agents, agent)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].PublicKey < agents[j].PublicKey })
	return agents, nil
}

func (s *MemStore) FetchAgent(_ context.Context, publicKey, serviceID string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if agent, ok := s.agents[scopedKey(serviceID, publicKey)]; ok {
		return &agent, nil
	}
	return nil, fmt.Errorf("agent %q: %w", publicKey, sentinel.ErrNotFound)
}

func (s *MemStore) ListOrganizations(_ context.Context, serviceID string) ([]Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgs := []Organization{}
	for _, org := range s.orgs {
		if org.ServiceID == serviceID {
			orgs = append(orgs, org)
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].OrgID < orgs[j].OrgID })
	return orgs, nil
}

func (s *MemStore) FetchOrganization(_ context.Context, orgID, serviceID string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if org, ok := s.orgs[scopedKey(serviceID, orgID)]; ok {
		return &org, nil
	}
	return nil, fmt.Errorf("organization %q: %w", orgID, sentinel.ErrNotFound)
}

func (s *MemStore) ListProducts(_ context.Context, serviceID string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := []Product{}
	for _, product := range s.products {
		if product.ServiceID == serviceID {
			products = append(products, product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	return products, nil
}

func (s *MemStore) FetchProduct(_ context.Context, productID, serviceID string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if product, ok := s.products[scopedKey(serviceID, productID)]; ok {
		return &product, nil
	}
	return nil, fmt.Errorf("product %q: %w", productID, sentinel.ErrNotFound)
}

func (s *MemStore) ListSchemas(_ context.Context, serviceID string) ([]Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schemas := []Schema{}
	for _, schema := range s.schemas {
		if schema.ServiceID == serviceID {
			schemas = append(schemas, schema)
		}
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas, nil
}

func (s *MemStore) FetchSchema(_ context.Context, name, serviceID string) (*Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if schema, ok := s.schemas[scopedKey(serviceID, name)]; ok {
		return &schema, nil
	}
	return nil, fmt.Errorf("schema %q: %w", name, sentinel.ErrNotFound)
}

func (s *MemStore) ListRecords(_ context.Context, serviceID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := []Record{}
	for _, record := range s.records {
		if record.ServiceID == serviceID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RecordID < records[j].RecordID })
	return records, nil
}

func (s *MemStore) FetchRecord(_ context.Context, recordID, serviceID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[scopedKey(serviceID, recordID)]; ok {
		return &record, nil
	}
	return nil, fmt.Errorf("record %q: %w", recordID, sentinel.ErrNotFound)
}

func (s *MemStore) FetchRecordProperty(_ context.Context, recordID, name, serviceID string) (*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if property, ok := s.properties[scopedKey(serviceID, recordID, name)]; ok {
		return &property, nil
	}
	return nil, fmt.Errorf("property %q of record %q: %w", name, recordID, sentinel.ErrNotFound)
}
