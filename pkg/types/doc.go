// Package types defines the storage engine contract (Store, Tx, Executor,
// Query and predicates), backend configuration, the schema table names and
// the standard errors shared by the strata mapper and its engines.
package types
