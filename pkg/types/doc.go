// Package types defines the configuration, entity types, and standard
// errors shared by the travelbrag store, its data-access layer, and the
// application lifecycle.
package types
