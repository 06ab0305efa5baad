// Package model is the backend-neutral contract between the completion
// client and language model vendors.
//
// A Request carries the flat prompt (role, text) built by the policy engine.
// Adapters in model/openai and model/anthropic implement Model; a Registry
// maps the model id stored on a community to the adapter serving it, and
// MockModel stands in for a backend in tests.
package model
