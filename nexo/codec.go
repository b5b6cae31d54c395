package nexo

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/currency"
)

// EncodingError reports a message that cannot be put on the wire.
type EncodingError struct {
	Field  string
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("encoding %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError reports bytes that do not form an acceptable envelope.
type DecodingError struct {
	Reason string
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding message: %s: %v", e.Reason, e.Err)
	}
	return "decoding message: " + e.Reason
}

func (e *DecodingError) Unwrap() error { return e.Err }

type envelope struct {
	SaleToPOIRequest  *envelopeBody `json:"SaleToPOIRequest,omitempty"`
	SaleToPOIResponse *envelopeBody `json:"SaleToPOIResponse,omitempty"`
}

type envelopeBody struct {
	MessageHeader   *MessageHeader   `json:"MessageHeader"`
	PaymentRequest  *PaymentRequest  `json:"PaymentRequest,omitempty"`
	PaymentResponse *PaymentResponse `json:"PaymentResponse,omitempty"`
}

// Encode validates m and serializes it to the wire envelope.
func Encode(m Message) ([]byte, error) {
	if err := validate(m); err != nil {
		return nil, err
	}

	header := m.Header
	var env envelope
	if m.IsRequest() {
		env.SaleToPOIRequest = &envelopeBody{MessageHeader: &header, PaymentRequest: m.Request}
	} else {
		env.SaleToPOIResponse = &envelopeBody{MessageHeader: &header, PaymentResponse: m.Response}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, &EncodingError{Field: "Message", Reason: "marshal", Err: err}
	}
	return data, nil
}

func validate(m Message) error {
	if err := m.checkKind(); err != nil {
		return err
	}

	required := []struct{ field, value string }{
		{"ProtocolVersion", m.Header.ProtocolVersion},
		{"ServiceID", m.Header.ServiceID},
		{"SaleID", m.Header.SaleID},
		{"POIID", m.Header.POIID},
	}
	for _, r := range required {
		if r.value == "" {
			return &EncodingError{Field: r.field, Reason: "required header field is empty"}
		}
	}

	if m.Request == nil {
		return nil
	}
	amounts := m.Request.PaymentTransaction.AmountsReq
	if !amounts.RequestedAmount.IsPositive() {
		return &EncodingError{Field: "RequestedAmount", Reason: "must be positive, got " + amounts.RequestedAmount.String()}
	}
	if _, err := currency.ParseISO(amounts.Currency); err != nil {
		return &EncodingError{Field: "Currency", Reason: fmt.Sprintf("%q is not an ISO 4217 code", amounts.Currency), Err: err}
	}
	return nil
}

// Decode parses a request or response envelope.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, &DecodingError{Reason: "malformed envelope", Err: err}
	}

	var (
		body *envelopeBody
		want MessageType
	)
	switch {
	case env.SaleToPOIRequest != nil && env.SaleToPOIResponse != nil:
		return Message{}, &DecodingError{Reason: "envelope carries both a request and a response"}
	case env.SaleToPOIRequest != nil:
		body, want = env.SaleToPOIRequest, MessageTypeRequest
	case env.SaleToPOIResponse != nil:
		body, want = env.SaleToPOIResponse, MessageTypeResponse
	default:
		return Message{}, &DecodingError{Reason: "no SaleToPOIRequest or SaleToPOIResponse"}
	}

	if body.MessageHeader == nil {
		return Message{}, &DecodingError{Reason: "missing MessageHeader"}
	}
	header := *body.MessageHeader
	if header.MessageType != want {
		return Message{}, &DecodingError{Reason: fmt.Sprintf("MessageType %q inside a %s envelope", header.MessageType, want)}
	}

	m := Message{Header: header}
	if want == MessageTypeRequest {
		if body.PaymentRequest == nil {
			return Message{}, &DecodingError{Reason: "missing PaymentRequest body"}
		}
		m.Request = body.PaymentRequest
	} else {
		if body.PaymentResponse == nil {
			return Message{}, &DecodingError{Reason: "missing PaymentResponse body"}
		}
		m.Response = body.PaymentResponse
	}
	return m, nil
}

// DecodeResponse parses a response envelope. A missing Result is an error;
// an unrecognized one decodes as ResultUnknown.
func DecodeResponse(data []byte) (Message, error) {
	m, err := Decode(data)
	if err != nil {
		return Message{}, err
	}
	if m.Header.MessageType != MessageTypeResponse {
		return Message{}, &DecodingError{Reason: fmt.Sprintf("expected MessageType Response, got %s", m.Header.MessageType)}
	}
	if m.Response.Response.RawResult == "" {
		return Message{}, &DecodingError{Reason: "missing Result"}
	}
	return m, nil
}
