package ports

// TokenService mints and verifies the three token kinds. Verification is
// stateless: signature, audience and expiry only. Callers that need
// revocation must compare against the stored value themselves.
type TokenService interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	IssueResetToken(userID string) (string, error)

	// Verify* return the subject user id, or domain.ErrInvalidToken.
	VerifyAccessToken(token string) (string, error)
	VerifyRefreshToken(token string) (string, error)
	VerifyResetToken(token string) (string, error)
}
