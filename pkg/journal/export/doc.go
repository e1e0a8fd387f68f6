// Package export encodes session records as JSON or CSV for the sessions
// command.
package export
