// Package credentials is the client's durable credential store: the single
// component permitted to read and write the persisted (token, profile) pair.
//
// The pair survives process restarts and is shared between concurrently
// running clients through the on-disk SQLite database; sibling processes
// observe mutations via file-change notifications (see the watch package).
package credentials
