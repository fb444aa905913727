package account

// VerifyRequest sets the verification flag of an account.
type VerifyRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
