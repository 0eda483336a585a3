package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// DEX API errors
	CodeDexConnectionFailed: "Failed to connect to DEX API",
	CodeDexTimeout:          "DEX request timed out",
	CodeDexRateLimited:      "DEX rate limit exceeded",
	CodeDexInvalidResponse:  "Invalid response from DEX API",
	CodeDexNotSupported:     "DEX is not supported",

	// Pool errors
	CodePoolNotFound:          "Pool not found",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeStalePoolData:         "Pool data is stale",

	// Swap and transaction errors
	CodeSlippageExceeded:   "Slippage tolerance exceeded",
	CodeTransactionFailed:  "Transaction failed on chain",
	CodeTransactionExpired: "Transaction expired before confirmation",
	CodeInvalidQuote:       "Invalid quote data",
	CodeRPCError:           "RPC call failed",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Opportunity lifecycle
	CodeOpportunityExpired:  "Opportunity has expired",
	CodeOpportunityNotFound: "Opportunity not found",
	CodeDuplicateID:         "Duplicate identifier",
	CodeNoSuitableStrategy:  "No strategy accepts this opportunity",
	CodeInvalidStrategy:     "Invalid strategy parameters",

	// Execution
	CodeExecutionNotFound:     "Execution not found",
	CodeExecutionNotRetryable: "Execution is not in a retryable state",
	CodeExecutorSaturated:     "Executor is at max concurrent executions",

	// Storage
	CodeStoreCapacityReached: "Store capacity reached",
	CodeDatabaseError:        "Database operation failed",

	// Circuit breaker
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
