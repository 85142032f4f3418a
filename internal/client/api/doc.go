// Package api is the request gateway between the client and the MedCare
// backend. Every outbound call goes through it: it attaches the persisted
// bearer credential, stamps a request id, normalizes failures into APIError,
// and converts server-asserted 401 responses into a single
// session-invalidation signal with loop protection.
package api
