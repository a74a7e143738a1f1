// Package memory provides an in-memory implementation of the storage
// interfaces.
//
// This package implements PropertyStore, CollectionStore, UserStore, and
// AdminStore using Go's built-in maps with mutex protection for thread
// safety. It is suitable for development, testing, and single-instance
// deployments where persistence is not required.
package memory
