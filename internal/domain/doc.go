// Package domain defines the core types shared by the subscription gateway,
// the remote list client and the HTTP surface.
//
// Types in this package are pure value objects with no behavior beyond
// small derivations, no HTTP concerns and no I/O.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Constants and enums belong here
package domain
