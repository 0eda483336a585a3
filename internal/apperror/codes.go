package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// DEX and chain error codes
const (
	// DEX API errors
	CodeDexConnectionFailed Code = "DEX_CONNECTION_FAILED"
	CodeDexTimeout          Code = "DEX_TIMEOUT"
	CodeDexRateLimited      Code = "DEX_RATE_LIMITED"
	CodeDexInvalidResponse  Code = "DEX_INVALID_RESPONSE"
	CodeDexNotSupported     Code = "DEX_NOT_SUPPORTED"

	// Pool errors
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeStalePoolData         Code = "STALE_POOL_DATA"

	// Swap and transaction errors
	CodeSlippageExceeded   Code = "SLIPPAGE_EXCEEDED"
	CodeTransactionFailed  Code = "TRANSACTION_FAILED"
	CodeTransactionExpired Code = "TRANSACTION_EXPIRED"
	CodeInvalidQuote       Code = "INVALID_QUOTE"
	CodeRPCError           Code = "RPC_ERROR"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Pipeline error codes
const (
	// Opportunity lifecycle
	CodeOpportunityExpired  Code = "OPPORTUNITY_EXPIRED"
	CodeOpportunityNotFound Code = "OPPORTUNITY_NOT_FOUND"
	CodeDuplicateID         Code = "DUPLICATE_ID"
	CodeNoSuitableStrategy  Code = "NO_SUITABLE_STRATEGY"
	CodeInvalidStrategy     Code = "INVALID_STRATEGY"

	// Execution
	CodeExecutionNotFound     Code = "EXECUTION_NOT_FOUND"
	CodeExecutionNotRetryable Code = "EXECUTION_NOT_RETRYABLE"
	CodeExecutorSaturated     Code = "EXECUTOR_SATURATED"

	// Storage
	CodeStoreCapacityReached Code = "STORE_CAPACITY_REACHED"
	CodeDatabaseError        Code = "DATABASE_ERROR"

	// Circuit breaker
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
