// Package testutil contains helpers used across tests to reduce boilerplate
// when exercising the orchestrator and transports: a recording sender and a
// handful of scripted agents. They are not intended for production usage.
package testutil
