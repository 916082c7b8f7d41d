// Package session implements SocioFeed's credential subsystem: it issues,
// verifies, and revokes the short-lived access credential and the durable
// refresh credential backing every authenticated session, and owns the
// process-wide refresh gate that collapses concurrent rotation attempts into
// a single flight.
//
// The durable refresh record is the source of truth; the token signature is a
// fast pre-check only. An expired or revoked record invalidates the whole
// session even while the signature still verifies.
package session
