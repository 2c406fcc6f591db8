// Package griddb holds the supply-chain state mirrored from the ledger and the
// stores that serve it to the REST layer. State is versioned by commit-number
// windows: a live row's EndCommitNum is MaxCommitNum, superseded rows carry the
// commit that replaced them.
package griddb

import "math"

// MaxCommitNum marks a row as current ledger state.
const MaxCommitNum int64 = math.MaxInt64

// Agent is a signing identity acting on behalf of an organization.
type Agent struct {
	PublicKey string
	OrgID     string
	Active    bool
	Roles     []string
	Metadata  map[string]string
	ServiceID string
}

// Organization owns products and employs agents.
type Organization struct {
	OrgID     string
	Name      string
	Address   string
	Metadata  map[string]string
	ServiceID string
}

// Product is a master-data entry described by schema-typed property values.
type Product struct {
	ProductID        string
	ProductNamespace string
	Owner            string
	Properties       []PropertyValue
	ServiceID        string
}

// PropertyValue is one typed value; DataType selects which field is set.
type PropertyValue struct {
	Name         string         `json:"name"`
	DataType     string         `json:"data_type"`
	BytesValue   []byte         `json:"bytes_value,omitempty"`
	BooleanValue bool           `json:"boolean_value,omitempty"`
	NumberValue  int64          `json:"number_value,omitempty"`
	StringValue  string         `json:"string_value,omitempty"`
	EnumValue    int32          `json:"enum_value,omitempty"`
	LatLongValue *LatLong       `json:"lat_long_value,omitempty"`
	StructValues []PropertyValue `json:"struct_values,omitempty"`
}

// LatLong is a coordinate pair in millionths of a degree.
type LatLong struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// Schema defines the properties records and products of a type must carry.
type Schema struct {
	Name        string
	Description string
	Owner       string
	Properties  []PropertyDefinition
	ServiceID   string
}

// PropertyDefinition is one field of a schema.
type PropertyDefinition struct {
	Name           string   `json:"name"`
	DataType       string   `json:"data_type"`
	Required       bool     `json:"required"`
	Description    string   `json:"description,omitempty"`
	NumberExponent int32    `json:"number_exponent,omitempty"`
	EnumOptions    []string `json:"enum_options,omitempty"`
}

// Record is a tracked item; Final records accept no further updates.
type Record struct {
	RecordID  string
	Schema    string
	Owner     string
	Custodian string
	Final     bool
	ServiceID string
}

// Property is one tracked value of a record together with its reported history.
type Property struct {
	Name      string
	RecordID  string
	DataType  string
	Reporters []string
	Updates   []ReportedValue
	ServiceID string
}

// ReportedValue is a single reading submitted by a reporter.
type ReportedValue struct {
	Timestamp int64         `json:"timestamp"`
	Reporter  string        `json:"reporter"`
	Value     PropertyValue `json:"value"`
}
