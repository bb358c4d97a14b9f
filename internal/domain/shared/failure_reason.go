package shared

// FailureReason defines transfer failure categories
type FailureReason string

const (
	FailureReasonAccountNotFound    FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonInsufficientFunds  FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonInvalidAmount      FailureReason = "INVALID_AMOUNT"
	FailureReasonInvalidTransferID  FailureReason = "INVALID_TRANSFER_ID"
	FailureReasonSameAccount        FailureReason = "SAME_ACCOUNT"
	FailureReasonTransferIDReused   FailureReason = "TRANSFER_ID_REUSED"
	FailureReasonDebitConflict      FailureReason = "DEBIT_CONFLICT"
	FailureReasonCreditConflict     FailureReason = "CREDIT_CONFLICT"
	FailureReasonCompensationFailed FailureReason = "COMPENSATION_FAILED"
	FailureReasonReversalFailed     FailureReason = "REVERSAL_FAILED"
	FailureReasonTransientStore     FailureReason = "TRANSIENT_STORE_FAILURE"
	FailureReasonMalformedMessage   FailureReason = "MALFORMED_MESSAGE"
	FailureReasonUnknownError       FailureReason = "UNKNOWN_ERROR"
)
