// Package orchestrator turns one inbound message into one output line per agent.
//
// For every message Handle:
//  1. rejects empty or whitespace-only text without invoking any agent
//  2. appends the user message and freezes the context window
//  3. invokes all registered agents concurrently and waits for all of them
//  4. walks the outcomes in registry order, persisting successes and emitting
//     a formatted line for each, pausing after success lines
//
// Failures are reported as system lines and are never written to the session.
package orchestrator
