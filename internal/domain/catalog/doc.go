// Package catalog implements the domain layer of the configuration registry.
//
// This package contains only standard library code. It has no knowledge of
// YAML, JSON schema or the filesystem; the application layer in
// internal/catalog decodes documents into a Definition and hands it here.
//
// # Core Types
//
// Catalog is the immutable registry of protocols, simulators, features,
// naming conventions and named templates. It is built once with NewCatalog
// and passed explicitly to every component that needs it.
//
// Protocol is a closed tagged variant: Kind is one of the built-in protocol
// kinds or KindCustom, and every Protocol carries its ProtocolProfile.
// Built-in kinds select protocol-specific templates downstream; Custom
// protocols always use the generic ones.
//
// TemplateSpec is the fully resolved, immutable parameter set for a single
// generation run. Only Catalog.Resolve constructs one.
//
// # Errors
//
// Every validation failure is a typed error carrying the E_CONFIGURATION
// code and naming the offending key, flag or name.
package catalog
