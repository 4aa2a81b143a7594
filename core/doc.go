// Package core provides the foundational domain types and interfaces used by
// agentlab. It defines the contracts for:
//
//   - Messages and Sessions (ordered, append-only conversation history)
//   - Agent identities (identifier, personality tag, presentation glyph)
//   - Providers (independently invokable response generators)
//   - Outcomes (the success-or-failure result of one agent invocation)
//   - Senders (the outbound half of a duplex channel)
//   - The error taxonomy shared by every layer (validation, agent, transport,
//     configuration)
//
// The package keeps implementation concerns (vendor APIs, storage, transport)
// out of scope, exposing small interfaces so concrete backends and mocks can
// be substituted freely.
package core
