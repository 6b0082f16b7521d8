// Package uid provides unique identifier generators behind small interfaces,
// so callers can swap implementations (snowflake, UUID, object id) and tests
// can inject deterministic ones.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
