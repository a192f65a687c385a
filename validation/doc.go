// Package validation provides input validation for commander descriptors
// and configuration structs.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type Options struct {
//	    ChunkSize int `validate:"gte=0"`
//	}
//	err := validation.ValidateStruct(opts)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(d.Program != "", "program", "program path is required")
//	err := v.Error()
package validation
