// Package queries contains read-only operations. Queries never open a unit
// of work; they read through the order repository and the directories.
package queries
