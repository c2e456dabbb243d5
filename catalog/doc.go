// Package catalog is the content repository of the playground.
//
// Examples are stored as YAML embedded in the binary, validated when loaded,
// and looked up by id. An unknown id is a configuration error reported as
// ErrUnknownExample, never as a pipeline failure.
package catalog
