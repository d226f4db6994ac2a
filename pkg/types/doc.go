// Package types defines the configuration structs, domain records, and
// reference sequences shared by the Courier ETL pipeline, store, and API.
// It has no dependencies so every other package can import it.
package types
