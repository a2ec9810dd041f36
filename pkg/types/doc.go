// Package types defines the Store interface, the Branch, Product and
// InventoryItem entities, and the standard errors for the stockcount
// storage system.
package types
