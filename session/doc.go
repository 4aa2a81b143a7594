// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts, so higher level packages (orchestrator,
// server) never depend on a concrete storage backend.
//
// The in-memory store is the reference backend: sessions are created on first
// append and live until the process ends or Delete is called. Long-term
// persistence is deliberately out of scope.
package session
