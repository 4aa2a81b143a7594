// Package agent contains the participants of a conversation and the
// machinery to call them safely.
//
// Provider implementations:
//   - ModelAgent: answers through a model.Model with a persona prompt
//   - VisualAgent: text description in conversations, images on request
//   - Unavailable: fail-closed stand-in for agents missing configuration
//   - Func: function-backed agent for tests and local experiments
//
// Every call goes through Invoke (or InvokeImage), which enforces a deadline,
// recovers panics and checks attribution, so a misbehaving agent only ever
// produces a failure Outcome. InvokeAll fans a prompt out to many agents and
// returns outcomes in registry order.
//
// Registry holds the ordered agent set; its order is the emission order.
package agent
