package vnpay

import "time"

// Gateway parameter names. These are part of VNPay's wire protocol and
// must not be changed.
const (
	paramVersion     = "vnp_Version"
	paramCommand     = "vnp_Command"
	paramTmnCode     = "vnp_TmnCode"
	paramLocale      = "vnp_Locale"
	paramCurrCode    = "vnp_CurrCode"
	paramTxnRef      = "vnp_TxnRef"
	paramOrderInfo   = "vnp_OrderInfo"
	paramOrderType   = "vnp_OrderType"
	paramAmount      = "vnp_Amount"
	paramReturnURL   = "vnp_ReturnUrl"
	paramIPAddr      = "vnp_IpAddr"
	paramCreateDate  = "vnp_CreateDate"
	paramSecureHash  = "vnp_SecureHash"
	paramSecureType  = "vnp_SecureHashType"
	paramRespCode    = "vnp_ResponseCode"
)

// ResponseCodeSuccess is the gateway's response code for a successful payment
const ResponseCodeSuccess = "00"

// createDateLayout is VNPay's timestamp format (local gateway time)
const createDateLayout = "20060102150405"

// PaymentRequest describes one outbound redirect to the payment page
type PaymentRequest struct {
	// OrderID is the checkout grouping token, sent as vnp_TxnRef
	OrderID string

	// Amount is the order total in currency units; the gateway expects
	// the value multiplied by 100
	Amount int64

	// IPAddr is the paying client's IP address
	IPAddr string

	// CreateTime stamps vnp_CreateDate; the same inputs always produce
	// the same signed URL
	CreateTime time.Time
}

// ReturnData is the verified outcome of a gateway return or callback
type ReturnData struct {
	// OrderID is the checkout grouping token echoed back by the gateway
	OrderID string

	// ResponseCode is the raw gateway response code
	ResponseCode string

	// Success is true only when the response code signals success;
	// the signature has already been verified by the time it is set
	Success bool
}
