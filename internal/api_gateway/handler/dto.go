package handler

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	AccountID string `json:"account_id"`
	TokenType string `json:"token_type"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// CreateAccountRequest represents a request to register a new account
type CreateAccountRequest struct {
	OwnerName      string `json:"owner_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	AccountNumber  string `json:"account_number,omitempty"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            string `json:"id"`
	OwnerName     string `json:"owner_name"`
	Email         string `json:"email"`
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// CreateTransferRequest represents a request to move funds. A missing
// transfer_id is generated, which makes the request non-retryable.
type CreateTransferRequest struct {
	TransferID      string `json:"transfer_id,omitempty" binding:"omitempty,max=128"`
	FromAccountID   string `json:"from_account_id" binding:"required,uuid"`
	ToAccountNumber string `json:"to_account_number" binding:"required"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
}

// TransferResponse represents a transfer record in API responses
type TransferResponse struct {
	TransferID      string `json:"transfer_id"`
	FromAccountID   string `json:"from_account_id"`
	ToAccountID     string `json:"to_account_id"`
	ToAccountNumber string `json:"to_account_number"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	FailureReason   string `json:"failure_reason,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// TransferListResponse represents a list of transfers in API responses
type TransferListResponse struct {
	Transfers []TransferResponse `json:"transfers"`
}

// PaginationParams represents the list window of list endpoints
type PaginationParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}
