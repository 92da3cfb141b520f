package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	client, err := NewClient(Config{
		TmnCode:    "TESTCODE",
		HashSecret: "test-hash-secret",
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:3000/payment",
	})
	require.NoError(t, err)
	return client
}

func testRequest() PaymentRequest {
	return PaymentRequest{
		OrderID:    "20240101120000-abcd1234",
		Amount:     150000,
		IPAddr:     "127.0.0.1",
		CreateTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{TmnCode: "X"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildPaymentURL_Deterministic(t *testing.T) {
	client := testClient(t)

	first, err := client.BuildPaymentURL(testRequest())
	require.NoError(t, err)
	second, err := client.BuildPaymentURL(testRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildPaymentURL_Contents(t *testing.T) {
	client := testClient(t)

	raw, err := client.BuildPaymentURL(testRequest())
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "2.1.0", query.Get("vnp_Version"))
	assert.Equal(t, "pay", query.Get("vnp_Command"))
	assert.Equal(t, "TESTCODE", query.Get("vnp_TmnCode"))
	assert.Equal(t, "vn", query.Get("vnp_Locale"))
	assert.Equal(t, "VND", query.Get("vnp_CurrCode"))
	assert.Equal(t, "20240101120000-abcd1234", query.Get("vnp_TxnRef"))
	// amount is sent multiplied by 100
	assert.Equal(t, "15000000", query.Get("vnp_Amount"))
	assert.Equal(t, "20240101120000", query.Get("vnp_CreateDate"))
	assert.Len(t, query.Get("vnp_SecureHash"), 128) // hex sha512
}

func TestBuildPaymentURL_SortedAndEncoded(t *testing.T) {
	client := testClient(t)

	raw, err := client.BuildPaymentURL(testRequest())
	require.NoError(t, err)

	queryPart := raw[strings.Index(raw, "?")+1:]
	keys := []string{}
	for _, pair := range strings.Split(queryPart, "&") {
		keys = append(keys, strings.SplitN(pair, "=", 2)[0])
	}
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i], "parameter keys must stay sorted")
	}

	// the order info contains spaces which must encode as '+'
	assert.Contains(t, queryPart, "vnp_OrderInfo=Thanh+toan+cho+ma+GD%3A")
}

func TestBuildPaymentURL_HashChangesWithAnyParameter(t *testing.T) {
	client := testClient(t)

	base, err := client.BuildPaymentURL(testRequest())
	require.NoError(t, err)
	baseHash := url.Values{}
	parsed, _ := url.Parse(base)
	baseHash = parsed.Query()

	mutations := []PaymentRequest{
		{OrderID: "other-order", Amount: 150000, IPAddr: "127.0.0.1", CreateTime: testRequest().CreateTime},
		{OrderID: testRequest().OrderID, Amount: 150001, IPAddr: "127.0.0.1", CreateTime: testRequest().CreateTime},
		{OrderID: testRequest().OrderID, Amount: 150000, IPAddr: "10.0.0.1", CreateTime: testRequest().CreateTime},
		{OrderID: testRequest().OrderID, Amount: 150000, IPAddr: "127.0.0.1", CreateTime: testRequest().CreateTime.Add(time.Second)},
	}

	for _, req := range mutations {
		raw, err := client.BuildPaymentURL(req)
		require.NoError(t, err)
		mutated, _ := url.Parse(raw)
		assert.NotEqual(t, baseHash.Get("vnp_SecureHash"), mutated.Query().Get("vnp_SecureHash"))
	}
}

func TestBuildPaymentURL_InvalidRequest(t *testing.T) {
	client := testClient(t)

	_, err := client.BuildPaymentURL(PaymentRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = client.BuildPaymentURL(PaymentRequest{OrderID: "x", Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// signedReturnQuery builds a return query the way the gateway would:
// same params, same encoding, signed with the shared secret.
func signedReturnQuery(client *Client, orderID, responseCode string) url.Values {
	params := url.Values{}
	params.Set("vnp_TxnRef", orderID)
	params.Set("vnp_ResponseCode", responseCode)
	params.Set("vnp_Amount", "15000000")
	params.Set("vnp_TmnCode", "TESTCODE")

	hash := client.sign(params.Encode())
	params.Set("vnp_SecureHash", hash)
	return params
}

func TestVerifyReturn_Success(t *testing.T) {
	client := testClient(t)

	data, err := client.VerifyReturn(signedReturnQuery(client, "order-1", "00"))
	require.NoError(t, err)
	assert.True(t, data.Success)
	assert.Equal(t, "order-1", data.OrderID)
	assert.Equal(t, "00", data.ResponseCode)
}

func TestVerifyReturn_FailureCode(t *testing.T) {
	client := testClient(t)

	// valid signature but gateway reported failure
	data, err := client.VerifyReturn(signedReturnQuery(client, "order-1", "24"))
	require.NoError(t, err)
	assert.False(t, data.Success)
	assert.Equal(t, "24", data.ResponseCode)
}

func TestVerifyReturn_TamperedParameter(t *testing.T) {
	client := testClient(t)

	query := signedReturnQuery(client, "order-1", "24")
	// flip the response code after signing
	query.Set("vnp_ResponseCode", "00")

	_, err := client.VerifyReturn(query)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyReturn_MissingSignature(t *testing.T) {
	client := testClient(t)

	query := url.Values{}
	query.Set("vnp_TxnRef", "order-1")
	query.Set("vnp_ResponseCode", "00")

	_, err := client.VerifyReturn(query)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifyReturn_IgnoresHashTypeField(t *testing.T) {
	client := testClient(t)

	query := signedReturnQuery(client, "order-1", "00")
	// gateways append the hash type after signing; it must not break verification
	query.Set("vnp_SecureHashType", "HMACSHA512")

	data, err := client.VerifyReturn(query)
	require.NoError(t, err)
	assert.True(t, data.Success)
}
