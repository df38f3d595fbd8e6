// Package types defines the public data model for bigbedkit: decoded
// records, chromosome metadata, and the typed error categories every
// internal package reports through.
//
// This package has no dependencies beyond the standard library.
package types
