// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside agentlab.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Surface vendor failures as errors instead of placeholder text
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI compatible endpoints, Anthropic, Gemini) implement the
// Model interface from this package so agents remain decoupled from vendor SDKs.
// The stability subpackage is an image generator and does not implement Model.
package model
