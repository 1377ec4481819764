// Package environment names the deployment environments and carries the
// current one through request contexts, so handlers can gate development-only
// behavior such as simulated payments.
package environment
