// Package terminaltest provides an in-memory tap-to-pay capability for
// exercising the terminal package without hardware.
package terminaltest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sahiltable85/RarePay/nexo"
	"github.com/sahiltable85/RarePay/terminal"
)

var (
	ErrNotLinked = errors.New("terminaltest: account not linked")
	ErrNotReady  = errors.New("terminaltest: reader not warmed up")
)

// Reader is a fake card reader. Configure the exported fields before use.
type Reader struct {
	POIID string

	LinkErr        error
	WarmUpErr      error
	TransactionErr error

	// Result is the code answered to every payment. Empty means Success.
	Result string
	// Response, when set, is returned verbatim instead of a built envelope.
	Response []byte

	// Gate, when set, is received from before a transaction is answered.
	Gate chan struct{}

	mu          sync.Mutex
	linked      bool
	ready       bool
	tokens      int
	sdkData     string
	requests    []nexo.Message
	transacting int
}

var _ terminal.Capability = (*Reader)(nil)

// NewReader returns an unlinked Reader answering with poiID.
func NewReader(poiID string) *Reader {
	return &Reader{POIID: poiID}
}

// LinkAccount links the reader unless LinkErr is set.
func (r *Reader) LinkAccount(ctx context.Context) error {
	if r.LinkErr != nil {
		return r.LinkErr
	}
	r.mu.Lock()
	r.linked = true
	r.mu.Unlock()
	return nil
}

// WarmUp registers a fresh setup token through reg and keeps the returned
// session payload. It fails before linking or when WarmUpErr is set.
func (r *Reader) WarmUp(ctx context.Context, reg terminal.Registrar) error {
	r.mu.Lock()
	linked := r.linked
	r.tokens++
	token := fmt.Sprintf("setup-token-%d", r.tokens)
	r.mu.Unlock()

	if !linked {
		return ErrNotLinked
	}
	if r.WarmUpErr != nil {
		return r.WarmUpErr
	}

	sdkData, err := reg.Register(ctx, token)
	if err != nil {
		return fmt.Errorf("registering setup token: %w", err)
	}
	if sdkData == "" {
		return errors.New("registering setup token: empty session payload")
	}

	r.mu.Lock()
	r.sdkData = sdkData
	r.ready = true
	r.mu.Unlock()
	return nil
}

// InstallationID returns POIID once linked.
func (r *Reader) InstallationID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.linked {
		return "", ErrNotLinked
	}
	return r.POIID, nil
}

// PerformTransaction decodes the request and answers with a response
// envelope echoing its sale data.
func (r *Reader) PerformTransaction(ctx context.Context, request []byte) ([]byte, error) {
	r.mu.Lock()
	ready := r.ready
	r.transacting++
	r.mu.Unlock()

	if r.Gate != nil {
		<-r.Gate
	}
	if !ready {
		return nil, ErrNotReady
	}

	msg, err := nexo.Decode(request)
	if err != nil {
		return nil, err
	}
	if !msg.IsRequest() {
		return nil, errors.New("terminaltest: expected a request envelope")
	}

	r.mu.Lock()
	r.requests = append(r.requests, msg)
	r.mu.Unlock()

	if r.TransactionErr != nil {
		return nil, r.TransactionErr
	}
	if r.Response != nil {
		return r.Response, nil
	}

	result := r.Result
	if result == "" {
		result = string(nexo.ResultSuccess)
	}

	amounts := msg.Request.PaymentTransaction.AmountsReq
	paymentResult, err := json.Marshal(map[string]any{
		"AmountsResp": map[string]any{
			"Currency":         amounts.Currency,
			"AuthorizedAmount": json.Number(amounts.RequestedAmount.String()),
		},
	})
	if err != nil {
		return nil, err
	}

	header := msg.Header
	header.MessageType = nexo.MessageTypeResponse
	resp, err := nexo.NewResponse(header, nexo.PaymentResponse{
		Response: nexo.Response{
			Result:    nexo.ParseResult(result),
			RawResult: result,
		},
		SaleData:      msg.Request.SaleData,
		PaymentResult: paymentResult,
	})
	if err != nil {
		return nil, err
	}
	return nexo.Encode(resp)
}

// SessionPayload returns the sdkData received during warm-up.
func (r *Reader) SessionPayload() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sdkData
}

// Requests returns the decoded requests seen so far.
func (r *Reader) Requests() []nexo.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nexo.Message(nil), r.requests...)
}

// Transactions counts PerformTransaction calls, including failed ones.
func (r *Reader) Transactions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transacting
}
