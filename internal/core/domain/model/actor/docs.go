// Package actor models the authenticated callers of the service and the
// directory records behind them. Role is a closed set; code that needs the
// record for an actor switches over it exhaustively.
package actor
