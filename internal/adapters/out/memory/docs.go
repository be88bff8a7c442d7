// Package memory provides process-local implementations of the order store
// and the directories. They back the service when STORE_DRIVER=memory and
// are used by tests that need real concurrency semantics without a
// database.
package memory
