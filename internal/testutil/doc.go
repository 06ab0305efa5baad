// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing inbound events, raw gateway payloads and
// seeded communities. These helpers are intentionally minimal and not
// intended for production usage.
package testutil
