// Package subscription implements the mailing-list subscription gateway.
//
// It answers three questions for one user, identified only by email
// address: which lists exist and what can the user do with each, subscribe
// to a list, and unsubscribe from a list. All state lives on the remote
// platform; the service holds none.
//
// Subscribe first tries to update an existing member and creates one only
// when the member is unknown. Unsubscribe only ever updates: unsubscribing
// an address that was never on the list is a no-op, never a creation.
//
// The service depends on the API interface defined in api.go. It never
// imports net/http directly.
package subscription
