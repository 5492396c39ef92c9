package ports

// IdentityVerifier resolves an identity-provider session token to the opaque
// caller identity it was issued for. The provider itself is an external
// collaborator; this is the only seam the service sees.
type IdentityVerifier interface {
	// Verify returns the caller identity encoded in token, or an error when
	// the token is missing, malformed, expired or signed by someone else.
	Verify(token string) (string, error)
}
