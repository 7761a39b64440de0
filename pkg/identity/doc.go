// Package identity provides authenticated identity management for Spire requests.
//
// This package separates the concept of an authenticated identity from the
// raw token parsing. An Identity combines token claims (user id, group
// memberships) with request-specific context (remote IP).
//
// # Basic Usage
//
//	// Create identity from a verified token
//	id, err := identity.FromToken(tokenString, signingKey)
//
//	// Add request context
//	id.WithRemoteIP(clientIP)
//
//	// Store in request context
//	ctx = identity.Set(ctx, id)
//
//	// Retrieve from context
//	id, ok := identity.Get(ctx)
//
// # Tokens
//
// Spire access tokens are HMAC-signed JWTs. The subject claim carries the
// user id; the groups claim carries the ids of the groups the user belongs
// to at issue time. Group membership is snapshotted into the token by the
// issuing authority, so permission checks never call back out to it.
package identity
