// Package session tracks whether the user is logged in: it bootstraps from
// the durable credential store, refreshes the profile in the background,
// exposes the mutation entry points (login, logout, update, refresh), and
// broadcasts server-asserted invalidation to subscribers.
package session
