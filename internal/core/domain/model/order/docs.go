// Package order contains the Order aggregate and its lifecycle state machine.
//
// An order is created by a customer in the available status, claimed exactly
// once by a delivery partner (available -> confirmed) and finalized by that
// partner (confirmed -> delivered | cancelled). Delivered and cancelled are
// terminal. Every successful transition records the domain events that the
// application layer publishes to the order's live channel after commit.
package order
