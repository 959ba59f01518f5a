package response

// SuccessResponse is the body of a successful call that has nothing else to return.
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed"`
}

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	// Machine readable error code
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Human readable message
	// example: Invalid request data
	Message string `json:"message"`

	// Extra details, usually the validator output (optional)
	// example: Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'email' tag
	Details string `json:"details,omitempty"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	// JWT for protected endpoints, valid 15 minutes
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// JWT used to obtain a new pair, valid 7 days
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refresh_token"`

	// example: CUSTOMER
	Role string `json:"role"`
}

// VerifyCodeResponse is returned once a password reset code has been checked.
type VerifyCodeResponse struct {
	Message string `json:"message" example:"Code verified"`
	TokenID uint   `json:"token_id" example:"42"`
}

// Validation builds the standard 400 body for a binding failure.
func Validation(err error) ErrorResponse {
	return ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request data",
		Details: err.Error(),
	}
}

// DBError builds the standard 500 body for a failed query.
func DBError(message string) ErrorResponse {
	return ErrorResponse{Code: "DB_ERROR", Message: message}
}
