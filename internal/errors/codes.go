package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to display messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN" // no access
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"

	// ==================== Product (PRODUCT_) ====================
	ProductNotFound          = "PRODUCT_NOT_FOUND"
	ProductInsufficientStock = "PRODUCT_INSUFFICIENT_STOCK" // requested quantity above stock

	// ==================== Purchase (PURCHASE_) ====================
	PurchaseNotFound          = "PURCHASE_NOT_FOUND"
	PurchaseNotInCart         = "PURCHASE_NOT_IN_CART"         // operation requires an in-cart line
	PurchaseInvalidStatus     = "PURCHASE_INVALID_STATUS"      // unknown status value
	PurchaseInvalidTransition = "PURCHASE_INVALID_TRANSITION"  // status change not allowed
	PurchaseStockExceeded     = "PURCHASE_STOCK_EXCEEDED"      // delivery would oversell stock
	PurchaseOrderNotFound     = "PURCHASE_ORDER_NOT_FOUND"     // no purchases under this orderId
	PurchaseAlreadyReconciled = "PURCHASE_ALREADY_RECONCILED"  // checkout session already settled

	// ==================== Payment (PAYMENT_) ====================
	PaymentSignatureInvalid = "PAYMENT_SIGNATURE_INVALID" // gateway return signature mismatch
	PaymentFailed           = "PAYMENT_FAILED"            // gateway reported failure
	PaymentURLFailed        = "PAYMENT_URL_FAILED"        // could not build checkout URL

	// ==================== Rating (RATING_) ====================
	RatingNotFound      = "RATING_NOT_FOUND"
	RatingInvalidStar   = "RATING_INVALID_STAR" // star outside 1..5
	RatingAlreadyExists = "RATING_ALREADY_EXISTS"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
