package nexo

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testHeader(t MessageType) MessageHeader {
	return MessageHeader{
		ProtocolVersion: ProtocolVersion,
		MessageClass:    MessageClassService,
		MessageCategory: MessageCategoryPayment,
		MessageType:     t,
		ServiceID:       "RarePay",
		SaleID:          "RarePay",
		POIID:           "V400m-324688179",
	}
}

func testRequest(amountMinor int64) PaymentRequest {
	return PaymentRequest{
		SaleData: SaleData{SaleTransactionID: TransactionIdentification{
			TransactionID: "5c0a4a4e-8b1e-4a39-9b7e-1f1f6f2f0e11",
			TimeStamp:     time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC),
		}},
		PaymentTransaction: PaymentTransaction{AmountsReq: AmountsReq{
			Currency:        "USD",
			RequestedAmount: MinorToMajor(amountMinor),
		}},
	}
}

func TestEncodeRequestWireShape(t *testing.T) {
	msg, err := NewRequest(testHeader(""), testRequest(1))
	require.NoError(t, err)

	data, err := Encode(msg)
	require.NoError(t, err)

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "SaleToPOIRequest")
	require.Contains(t, raw["SaleToPOIRequest"], "MessageHeader")
	require.Contains(t, raw["SaleToPOIRequest"], "PaymentRequest")

	require.Contains(t, string(data), `"RequestedAmount":0.01`)
	require.Contains(t, string(data), `"MessageType":"Request"`)
	require.Contains(t, string(data), `"POIID":"V400m-324688179"`)
}

func TestEncodeRejectsMissingHeaderFields(t *testing.T) {
	fields := map[string]func(h *MessageHeader){
		"ProtocolVersion": func(h *MessageHeader) { h.ProtocolVersion = "" },
		"ServiceID":       func(h *MessageHeader) { h.ServiceID = "" },
		"SaleID":          func(h *MessageHeader) { h.SaleID = "" },
		"POIID":           func(h *MessageHeader) { h.POIID = "" },
	}
	for field, mutate := range fields {
		t.Run(field, func(t *testing.T) {
			h := testHeader(MessageTypeRequest)
			mutate(&h)
			msg, err := NewRequest(h, testRequest(100))
			require.NoError(t, err)

			_, err = Encode(msg)

			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			require.Equal(t, field, encErr.Field)
		})
	}
}

func TestEncodeRejectsNonPositiveAmount(t *testing.T) {
	for _, minor := range []int64{0, -1} {
		msg, err := NewRequest(testHeader(MessageTypeRequest), testRequest(minor))
		require.NoError(t, err)

		_, err = Encode(msg)

		var encErr *EncodingError
		require.ErrorAs(t, err, &encErr)
		require.Equal(t, "RequestedAmount", encErr.Field)
	}
}

func TestEncodeRejectsUnknownCurrency(t *testing.T) {
	req := testRequest(100)
	req.PaymentTransaction.AmountsReq.Currency = "US"
	msg, err := NewRequest(testHeader(MessageTypeRequest), req)
	require.NoError(t, err)

	_, err = Encode(msg)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "Currency", encErr.Field)
}

func TestConstructorsEnforceKind(t *testing.T) {
	_, err := NewRequest(testHeader(MessageTypeResponse), testRequest(1))
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)

	_, err = NewResponse(testHeader(MessageTypeRequest), PaymentResponse{})
	require.ErrorAs(t, err, &encErr)

	_, err = Encode(Message{Header: testHeader(MessageTypeRequest)})
	require.ErrorAs(t, err, &encErr)
}

func TestRequestRoundTrip(t *testing.T) {
	msg, err := NewRequest(testHeader(MessageTypeRequest), testRequest(12345))
	require.NoError(t, err)

	data, err := Encode(msg)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)

	require.True(t, got.IsRequest())
	require.Equal(t, msg.Header, got.Header)
	want := msg.Request.SaleData.SaleTransactionID
	gotID := got.Request.SaleData.SaleTransactionID
	require.Equal(t, want.TransactionID, gotID.TransactionID)
	require.True(t, want.TimeStamp.Equal(gotID.TimeStamp))
	amounts := got.Request.PaymentTransaction.AmountsReq
	require.Equal(t, "USD", amounts.Currency)
	require.True(t, amounts.RequestedAmount.Equal(decimal.RequireFromString("123.45")))
}

func TestResponseRoundTrip(t *testing.T) {
	for _, result := range []Result{ResultSuccess, ResultFailure, ResultPartial} {
		body := PaymentResponse{
			Response: Response{Result: result, AdditionalResponse: "tid=42"},
			SaleData: testRequest(1).SaleData,
		}
		msg, err := NewResponse(testHeader(""), body)
		require.NoError(t, err)

		data, err := Encode(msg)
		require.NoError(t, err)
		got, err := DecodeResponse(data)
		require.NoError(t, err)

		require.Equal(t, result, got.Response.Response.Result)
		require.Equal(t, "tid=42", got.Response.Response.AdditionalResponse)
		require.Equal(t, body.SaleData.SaleTransactionID.TransactionID, got.Response.SaleData.SaleTransactionID.TransactionID)
	}
}

func TestDecodeResponseUnknownResult(t *testing.T) {
	data := []byte(`{"SaleToPOIResponse":{
		"MessageHeader":{"ProtocolVersion":"3.0","MessageClass":"Service","MessageCategory":"Payment",
			"MessageType":"Response","ServiceID":"RarePay","SaleID":"RarePay","POIID":"P1"},
		"PaymentResponse":{"Response":{"Result":"PendingReview"},"POIData":{"POITransactionID":{"TransactionID":"x"}}}}}`)

	msg, err := DecodeResponse(data)
	require.NoError(t, err)
	require.Equal(t, ResultUnknown, msg.Response.Response.Result)
	require.Equal(t, "PendingReview", msg.Response.Response.RawResult)
	require.JSONEq(t, `{"POITransactionID":{"TransactionID":"x"}}`, string(msg.Response.POIData))

	// The raw code survives re-encoding.
	out, err := Encode(msg)
	require.NoError(t, err)
	require.Contains(t, string(out), `"Result":"PendingReview"`)
}

func TestDecodeResponseFailures(t *testing.T) {
	header := `"MessageHeader":{"ProtocolVersion":"3.0","MessageClass":"Service","MessageCategory":"Payment","MessageType":"%s","ServiceID":"s","SaleID":"s","POIID":"p"}`
	cases := map[string]string{
		"malformed":       `{"SaleToPOIResponse":`,
		"empty":           `{}`,
		"request type":    `{"SaleToPOIRequest":{` + fmt.Sprintf(header, "Request") + `,"PaymentRequest":{}}}`,
		"mismatched type": `{"SaleToPOIResponse":{` + fmt.Sprintf(header, "Request") + `,"PaymentResponse":{"Response":{"Result":"Success"}}}}`,
		"missing body":    `{"SaleToPOIResponse":{` + fmt.Sprintf(header, "Response") + `}}`,
		"missing result":  `{"SaleToPOIResponse":{` + fmt.Sprintf(header, "Response") + `,"PaymentResponse":{"Response":{}}}}`,
		"missing header":  `{"SaleToPOIResponse":{"PaymentResponse":{"Response":{"Result":"Success"}}}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(data))

			var decErr *DecodingError
			require.True(t, errors.As(err, &decErr), "got %v", err)
		})
	}
}
