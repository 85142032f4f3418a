// Package cli provides the interactive MedCare command-line client.
//
// It wires configuration, the local credential database, the HTTP gateway,
// the session service, and an interactive REPL. Typical flow: bootstrap the
// session from the locally cached credential, start a watcher that picks up
// credential changes made by other processes, and execute user commands.
//
// Key features:
//   - Login / Signup / Google sign-in / Logout
//   - Guarded navigation: protected views redirect to login and return after
//   - News browsing, diagnostic views, MRI scan upload
//   - Automatic session-expiry handling on 401 responses
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
