package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
)

// Client builds signed payment URLs and verifies gateway callbacks
type Client struct {
	config Config
}

// NewClient creates a new VNPay client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{config: config.withDefaults()}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// BuildPaymentURL assembles the signed redirect URL for one checkout.
// Parameter keys are sorted lexicographically and values percent-encoded
// with space as '+' before signing; the gateway recomputes the HMAC over
// that exact byte sequence, so the encoding is not negotiable.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.OrderID == "" || req.Amount <= 0 {
		return "", ErrInvalidRequest
	}

	params := url.Values{}
	params.Set(paramVersion, c.config.Version)
	params.Set(paramCommand, "pay")
	params.Set(paramTmnCode, c.config.TmnCode)
	params.Set(paramLocale, c.config.Locale)
	params.Set(paramCurrCode, c.config.CurrCode)
	params.Set(paramTxnRef, req.OrderID)
	params.Set(paramOrderInfo, "Thanh toan cho ma GD:"+req.OrderID)
	params.Set(paramOrderType, "other")
	params.Set(paramAmount, strconv.FormatInt(req.Amount*100, 10))
	params.Set(paramReturnURL, c.config.ReturnURL)
	params.Set(paramIPAddr, req.IPAddr)
	params.Set(paramCreateDate, req.CreateTime.Format(createDateLayout))

	// url.Values.Encode sorts keys and encodes space as '+'
	signData := params.Encode()
	params.Set(paramSecureHash, c.sign(signData))

	return c.config.BaseURL + "?" + params.Encode(), nil
}

// VerifyReturn validates an inbound return/callback query. The secure hash
// must match the recomputed signature AND the response code must signal
// success for Success to be true; a bad signature fails outright regardless
// of the response code.
func (c *Client) VerifyReturn(query url.Values) (*ReturnData, error) {
	supplied := query.Get(paramSecureHash)
	if supplied == "" {
		return nil, ErrMissingSignature
	}

	params := url.Values{}
	for key, values := range query {
		if key == paramSecureHash || key == paramSecureType {
			continue
		}
		for _, v := range values {
			params.Add(key, v)
		}
	}

	expected := c.sign(params.Encode())
	if !hmac.Equal([]byte(expected), []byte(supplied)) {
		return nil, ErrSignatureMismatch
	}

	code := query.Get(paramRespCode)
	return &ReturnData{
		OrderID:      query.Get(paramTxnRef),
		ResponseCode: code,
		Success:      code == ResponseCodeSuccess,
	}, nil
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.config.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
