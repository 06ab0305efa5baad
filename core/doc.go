// Package core provides the foundational domain types and interfaces used by
// the jeeves relay. It defines the core abstractions for:
//
//   - Communities (per-guild configuration plus per-channel conversation logs)
//   - Snapshots and the StateStore contract (whole-aggregate load/save)
//   - Inbound gateway events (a closed union decoded once at the boundary)
//   - Commands (a closed enumeration of the administrative surface)
//   - Outbound calls and reply targets understood by a Gateway
//   - Prompt messages exchanged with the completion backend
//
// The package keeps implementation concerns (persistence, transport, model
// vendors) out of scope and exposes small interfaces so those can be swapped
// without touching the policy or routing logic.
package core
