package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahiltable85/RarePay/nexo"
)

const (
	statusIdle      = "Idle"
	statusLinking   = "Linking account"
	statusWarmingUp = "Warming up"
	statusReady     = "Ready to take payment"
	statusCharging  = "Charging"
)

// Options configures a Manager. Zero values get defaults.
type Options struct {
	Logger *zap.Logger

	// SaleID and ServiceID go into every request header. Both default to "RarePay".
	SaleID    string
	ServiceID string

	Now              func() time.Time
	NewTransactionID func() string
}

// Manager sequences link, warm-up and charge for one device session. At
// most one operation runs at a time; Status never blocks.
type Manager struct {
	capability Capability
	sessions   SessionExchanger
	logger     *zap.Logger

	saleID    string
	serviceID string
	now       func() time.Time
	newID     func() string

	// mu serializes transitions and publication.
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	pendingRegistrations atomic.Int32
}

// NewManager returns an Idle manager driving capability and exchanging setup
// tokens through sessions.
func NewManager(capability Capability, sessions SessionExchanger, opts Options) *Manager {
	m := &Manager{
		capability: capability,
		sessions:   sessions,
		logger:     opts.Logger,
		saleID:     opts.SaleID,
		serviceID:  opts.ServiceID,
		now:        opts.Now,
		newID:      opts.NewTransactionID,
		subs:       make(map[int]chan Snapshot),
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.saleID == "" {
		m.saleID = "RarePay"
	}
	if m.serviceID == "" {
		m.serviceID = "RarePay"
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.New().String() }
	}
	m.current.Store(&Snapshot{State: StateIdle, Status: statusIdle})
	return m
}

// Status returns the latest published snapshot.
func (m *Manager) Status() Snapshot {
	return *m.current.Load()
}

// Subscribe returns a channel receiving every snapshot published after the
// call, and a func that ends the subscription. A subscriber that falls
// behind loses older snapshots, never the newest.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			close(ch)
			m.subsMu.Unlock()
		})
	}
}

// publish must be called with m.mu held.
func (m *Manager) publish(s Snapshot) {
	s.Version = m.current.Load().Version + 1
	m.current.Store(&s)

	m.logger.Info("terminal status",
		zap.Stringer("state", s.State),
		zap.String("status", s.Status),
		zap.Uint64("version", s.Version),
	)

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (m *Manager) transition(s Snapshot) {
	m.mu.Lock()
	m.publish(s)
	m.mu.Unlock()
}

func (m *Manager) fail(state State, err error) error {
	m.transition(Snapshot{State: state, Status: statusFor(err), Err: err})
	return err
}

// Bootstrap links the account and warms up the capability. It may be
// called again from Ready, Succeeded or Failed to start over. Any failure
// leaves the manager Idle.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	if m.current.Load().State.busy() {
		m.mu.Unlock()
		m.logger.Warn("bootstrap rejected", zap.Error(ErrBusy))
		return ErrBusy
	}
	m.publish(Snapshot{State: StateLinking, Status: statusLinking})
	m.mu.Unlock()

	if err := m.capability.LinkAccount(ctx); err != nil {
		m.logger.Error("link account failed", zap.Error(err))
		return m.fail(StateIdle, &LinkError{Err: err})
	}

	m.transition(Snapshot{State: StateWarmingUp, Status: statusWarmingUp})

	var regErr error
	reg := registrarFunc(func(ctx context.Context, token string) (string, error) {
		payload, err := m.Register(ctx, token)
		if err != nil {
			regErr = err
		}
		return payload, err
	})

	err := m.capability.WarmUp(ctx, reg)
	if err == nil && m.pendingRegistrations.Load() > 0 {
		err = errors.New("warm-up returned with a session exchange outstanding")
	}
	if err != nil {
		if regErr != nil && !errors.Is(err, regErr) {
			err = fmt.Errorf("%w (session exchange: %w)", err, regErr)
		}
		m.logger.Error("warm up failed", zap.Error(err))
		return m.fail(StateIdle, &WarmUpError{Err: err})
	}

	m.transition(Snapshot{State: StateReady, Status: statusReady})
	return nil
}

type registrarFunc func(ctx context.Context, token string) (string, error)

func (f registrarFunc) Register(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// Register exchanges setupToken for the session payload the capability
// needs to finish warming up. It is only valid during warm-up.
func (m *Manager) Register(ctx context.Context, setupToken string) (string, error) {
	if st := m.current.Load().State; st != StateWarmingUp {
		return "", fmt.Errorf("register called in state %s", st)
	}

	m.pendingRegistrations.Add(1)
	defer m.pendingRegistrations.Add(-1)

	payload, err := m.sessions.ExchangeSetupToken(ctx, setupToken)
	if err != nil {
		m.logger.Error("session exchange failed", zap.Error(err))
		return "", err
	}
	m.logger.Info("session exchanged", zap.Int("sdk_data_len", len(payload)))
	return payload, nil
}

// StartPayment charges amountMinor minor units of currency through the
// tap-to-pay interface. A decoded result of any kind is returned as an
// Outcome with a nil error; subscribers see Succeeded or Failed followed by
// Ready, and both snapshots carry the Outcome. A charge that yields no
// decodable result leaves the manager Failed with a *ChargeError.
func (m *Manager) StartPayment(ctx context.Context, amountMinor int64, currency string) (Outcome, error) {
	if amountMinor <= 0 {
		m.logger.Warn("charge rejected", zap.Int64("amount_minor", amountMinor), zap.Error(ErrInvalidAmount))
		return Outcome{}, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))

	m.mu.Lock()
	st := m.current.Load().State
	switch {
	case st == StateCharging:
		m.mu.Unlock()
		m.logger.Warn("charge rejected", zap.Error(ErrBusy))
		return Outcome{}, ErrBusy
	case !st.chargeable():
		err := &NotLinkedError{State: st}
		if !st.busy() {
			m.publish(Snapshot{State: st, Status: statusFor(err), Err: err})
		}
		m.mu.Unlock()
		m.logger.Warn("charge rejected", zap.Error(err))
		return Outcome{}, err
	}
	m.publish(Snapshot{State: StateCharging, Status: statusCharging})
	m.mu.Unlock()

	poiID, err := m.capability.InstallationID()
	if err != nil {
		return Outcome{}, m.fail(StateIdle, &NotLinkedError{State: StateCharging, Err: err})
	}

	txID := m.newID()
	logger := m.logger.With(zap.String("transaction_id", txID), zap.String("poi_id", poiID))

	header := nexo.MessageHeader{
		ProtocolVersion: nexo.ProtocolVersion,
		MessageClass:    nexo.MessageClassService,
		MessageCategory: nexo.MessageCategoryPayment,
		MessageType:     nexo.MessageTypeRequest,
		ServiceID:       m.serviceID,
		SaleID:          m.saleID,
		POIID:           poiID,
	}
	body := nexo.PaymentRequest{
		SaleData: nexo.SaleData{SaleTransactionID: nexo.TransactionIdentification{
			TransactionID: txID,
			TimeStamp:     m.now().UTC(),
		}},
		PaymentTransaction: nexo.PaymentTransaction{AmountsReq: nexo.AmountsReq{
			Currency:        currency,
			RequestedAmount: nexo.MinorToMajor(amountMinor),
		}},
	}

	msg, err := nexo.NewRequest(header, body)
	if err != nil {
		return Outcome{}, m.fail(StateFailed, &ChargeError{TransactionID: txID, Err: err})
	}
	request, err := nexo.Encode(msg)
	if err != nil {
		return Outcome{}, m.fail(StateFailed, &ChargeError{TransactionID: txID, Err: err})
	}

	logger.Info("submitting payment",
		zap.String("amount", body.PaymentTransaction.AmountsReq.RequestedAmount.String()),
		zap.String("currency", currency),
	)

	// A submitted card-present transaction is never abandoned.
	response, err := m.capability.PerformTransaction(context.WithoutCancel(ctx), request)
	if err != nil {
		logger.Error("transaction failed", zap.Error(err))
		return Outcome{}, m.fail(StateFailed, &ChargeError{TransactionID: txID, Err: err})
	}

	decoded, err := nexo.DecodeResponse(response)
	if err != nil {
		logger.Error("undecodable response", zap.Error(err))
		return Outcome{}, m.fail(StateFailed, &ChargeError{TransactionID: txID, Err: err})
	}

	res := decoded.Response.Response
	outcome := Outcome{
		TransactionID: txID,
		Result:        res.Result,
		RawResult:     res.RawResult,
		Response:      decoded.Response,
	}
	state := StateFailed
	if res.Result == nexo.ResultSuccess {
		state = StateSucceeded
	}
	logger.Info("payment result", zap.String("result", res.RawResult), zap.String("error_condition", res.ErrorCondition))

	// The session stays warm, so the manager is ready again as soon as the
	// result is out. The Ready snapshot keeps the result for late readers.
	status := "Result: " + res.RawResult
	m.mu.Lock()
	m.publish(Snapshot{State: state, Status: status, Outcome: &outcome})
	m.publish(Snapshot{State: StateReady, Status: status, Outcome: &outcome})
	m.mu.Unlock()
	return outcome, nil
}
