// Package strata carries build metadata for the strata module.
package strata

// Version is the strata release version.
const Version = "0.1.0"
