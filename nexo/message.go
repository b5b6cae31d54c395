// Package nexo builds and parses the point-of-interaction message envelope
// exchanged with a payment terminal: the nexo-based Terminal API JSON
// grammar, where a SaleToPOIRequest or SaleToPOIResponse wraps a
// MessageHeader and exactly one body.
//
// The grammar is owned by the protocol standard. Field names and nesting
// here follow it verbatim and must not be renamed.
//
// A Message is a tagged union: Request is set for request envelopes and
// Response for response envelopes, and Header.MessageType always agrees
// with whichever is set. NewRequest and NewResponse enforce that at
// construction, and Encode checks it again before anything is written.
package nexo

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProtocolVersion is the Terminal API version this package speaks.
const ProtocolVersion = "3.0"

// MessageClass groups messages by purpose; payments are Service messages.
type MessageClass string

const (
	MessageClassService MessageClass = "Service"
	MessageClassDevice  MessageClass = "Device"
	MessageClassEvent   MessageClass = "Event"
)

// MessageCategory names the service a message belongs to.
type MessageCategory string

const (
	MessageCategoryPayment           MessageCategory = "Payment"
	MessageCategoryAbort             MessageCategory = "Abort"
	MessageCategoryReversal          MessageCategory = "Reversal"
	MessageCategoryTransactionStatus MessageCategory = "TransactionStatus"
)

// MessageType tells a request from its response.
type MessageType string

const (
	MessageTypeRequest  MessageType = "Request"
	MessageTypeResponse MessageType = "Response"
)

// MessageHeader describes one message exchange. POIID identifies the
// card-reading endpoint and is only known once the device is linked.
type MessageHeader struct {
	ProtocolVersion string          `json:"ProtocolVersion"`
	MessageClass    MessageClass    `json:"MessageClass"`
	MessageCategory MessageCategory `json:"MessageCategory"`
	MessageType     MessageType     `json:"MessageType"`
	ServiceID       string          `json:"ServiceID"`
	SaleID          string          `json:"SaleID"`
	POIID           string          `json:"POIID"`
}

// TransactionIdentification identifies one payment attempt.
type TransactionIdentification struct {
	TransactionID string    `json:"TransactionID"`
	TimeStamp     time.Time `json:"TimeStamp"`
}

// SaleData carries the sale system's reference for a transaction.
type SaleData struct {
	SaleTransactionID TransactionIdentification `json:"SaleTransactionID"`
}

// AmountsReq is the requested amount in major units, e.g. 0.01 USD.
type AmountsReq struct {
	Currency        string          `json:"Currency"`
	RequestedAmount decimal.Decimal `json:"RequestedAmount"`
}

// MarshalJSON writes RequestedAmount as a bare JSON number carrying the
// decimal's exact digits.
func (a AmountsReq) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Currency        string      `json:"Currency"`
		RequestedAmount json.Number `json:"RequestedAmount"`
	}{
		Currency:        a.Currency,
		RequestedAmount: json.Number(a.RequestedAmount.String()),
	})
}

// PaymentTransaction holds the amounts of a payment request.
type PaymentTransaction struct {
	AmountsReq AmountsReq `json:"AmountsReq"`
}

// PaymentRequest is the body of a payment request envelope.
type PaymentRequest struct {
	SaleData           SaleData           `json:"SaleData"`
	PaymentTransaction PaymentTransaction `json:"PaymentTransaction"`
}

// PaymentResponse is the terminal's answer. Vendor detail blocks are kept
// as raw JSON and passed through untouched.
type PaymentResponse struct {
	Response      Response        `json:"Response"`
	SaleData      SaleData        `json:"SaleData"`
	POIData       json.RawMessage `json:"POIData,omitempty"`
	PaymentResult json.RawMessage `json:"PaymentResult,omitempty"`
}

// Message is a header plus exactly one body.
type Message struct {
	Header   MessageHeader
	Request  *PaymentRequest
	Response *PaymentResponse
}

// NewRequest returns a request message. An empty header MessageType is
// filled in; any other type than Request is rejected.
func NewRequest(header MessageHeader, body PaymentRequest) (Message, error) {
	if header.MessageType == "" {
		header.MessageType = MessageTypeRequest
	}
	m := Message{Header: header, Request: &body}
	if err := m.checkKind(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// NewResponse returns a response message. An empty header MessageType is
// filled in; any other type than Response is rejected.
func NewResponse(header MessageHeader, body PaymentResponse) (Message, error) {
	if header.MessageType == "" {
		header.MessageType = MessageTypeResponse
	}
	m := Message{Header: header, Response: &body}
	if err := m.checkKind(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// IsRequest reports whether m carries a request body.
func (m Message) IsRequest() bool { return m.Request != nil }

func (m Message) checkKind() error {
	switch {
	case m.Request != nil && m.Response != nil:
		return &EncodingError{Field: "Body", Reason: "message carries both a request and a response"}
	case m.Request != nil:
		if m.Header.MessageType != MessageTypeRequest {
			return &EncodingError{Field: "MessageType", Reason: "request body requires MessageType Request, got " + string(m.Header.MessageType)}
		}
	case m.Response != nil:
		if m.Header.MessageType != MessageTypeResponse {
			return &EncodingError{Field: "MessageType", Reason: "response body requires MessageType Response, got " + string(m.Header.MessageType)}
		}
	default:
		return &EncodingError{Field: "Body", Reason: "message has no body"}
	}
	return nil
}
