// Package state provides core.StateStore implementations.
//
// Every store persists the full snapshot as one serialized blob and reads it
// back in full; there are no field-level updates. Implementations:
//
//   - InMemoryStore: process-local blob, for tests and ephemeral runs
//   - FileStore: JSON file on disk, replaced atomically on save
//   - PebbleStore: JSON blob under a single key of a Pebble database
//
// Load never fails. A missing or undecodable blob yields an empty snapshot
// and is logged. Save falls back to persisting an empty placeholder when the
// snapshot cannot be encoded and reports the failure as ErrEncode.
package state
