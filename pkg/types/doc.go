// Package types defines the data-access boundary, store configuration, and
// standard errors shared by the cabinet mapping layer and its backends.
package types
