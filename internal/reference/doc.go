// Package reference provides the immutable airport and airline lists used by
// the flight form lookups.
//
// The lists are embedded YAML files parsed once on first use. A Catalog is
// read-only after construction and is shared by every lookup field.
package reference
