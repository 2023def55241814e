package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	domainTrade "github.com/barterhub/barterhub/internal/domain/trade"
)

type stubTradeRepo struct {
	trades map[uuid.UUID]*domainTrade.Trade
}

func (r *stubTradeRepo) Create(_ context.Context, t *domainTrade.Trade) error {
	r.trades[t.TradeID] = t
	return nil
}

func (r *stubTradeRepo) GetByID(_ context.Context, id uuid.UUID) (*domainTrade.Trade, error) {
	t, ok := r.trades[id]
	if !ok {
		return nil, nil
	}
	c := *t
	if t.Delivery != nil {
		d := *t.Delivery
		c.Delivery = &d
	}
	return &c, nil
}

func (r *stubTradeRepo) List(context.Context, domainTrade.Filter, int, int) ([]*domainTrade.Trade, error) {
	return nil, nil
}
func (r *stubTradeRepo) CountActiveByProposer(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}
func (r *stubTradeRepo) ListStaleActive(context.Context, time.Time, int) ([]*domainTrade.Trade, error) {
	return nil, nil
}

func (r *stubTradeRepo) UpdateIfStatus(_ context.Context, t *domainTrade.Trade, expected domainTrade.Status) error {
	stored, ok := r.trades[t.TradeID]
	if !ok {
		return domainTrade.NotFoundf("trade not found: %s", t.TradeID)
	}
	if stored.Status != expected {
		return domainTrade.ErrStatusChanged
	}
	c := *t
	r.trades[t.TradeID] = &c
	return nil
}

func address() domainTrade.Address {
	return domainTrade.Address{
		FullName:   "Camille Perrin",
		Line1:      "12 rue des Lilas",
		City:       "Lyon",
		PostalCode: "69003",
		Country:    "FR",
	}
}

func acceptedTrade(t *testing.T) (*stubTradeRepo, *domainTrade.Trade, uuid.UUID, uuid.UUID) {
	t.Helper()
	u1, u2 := uuid.New(), uuid.New()
	now := time.Now().UTC()
	tr, err := domainTrade.New(u1, u2, []uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()}, "", now)
	require.NoError(t, err)
	require.NoError(t, tr.Accept(u2, now))
	repo := &stubTradeRepo{trades: map[uuid.UUID]*domainTrade.Trade{tr.TradeID: tr}}
	return repo, tr, u1, u2
}

func TestConfigureDelivery(t *testing.T) {
	repo, tr, u1, _ := acceptedTrade(t)
	svc := NewService(repo, zerolog.Nop())

	got, err := svc.Configure(context.Background(), tr.TradeID, u1, ConfigureInput{
		Carrier:          domainTrade.CarrierColissimo,
		SenderAddress:    address(),
		RecipientAddress: address(),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Delivery)
	require.Equal(t, domainTrade.CarrierColissimo, got.Delivery.Carrier)
	require.Equal(t, "pending", got.Delivery.TrackingStatus)

	status, err := svc.Tracking(context.Background(), tr.TradeID, u1)
	require.NoError(t, err)
	require.Equal(t, "pending", status)
}

func TestConfigureRequiresAcceptedTrade(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	tr, err := domainTrade.New(u1, u2, []uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()}, "", time.Now().UTC())
	require.NoError(t, err)
	repo := &stubTradeRepo{trades: map[uuid.UUID]*domainTrade.Trade{tr.TradeID: tr}}
	svc := NewService(repo, zerolog.Nop())

	_, err = svc.Configure(context.Background(), tr.TradeID, u1, ConfigureInput{
		Carrier:          domainTrade.CarrierChronopost,
		SenderAddress:    address(),
		RecipientAddress: address(),
	})
	require.Equal(t, domainTrade.KindConflict, domainTrade.KindOf(err))
}

func TestConfigureRejectsUnknownCarrier(t *testing.T) {
	repo, tr, u1, _ := acceptedTrade(t)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Configure(context.Background(), tr.TradeID, u1, ConfigureInput{
		Carrier:          domainTrade.Carrier("PIGEON"),
		SenderAddress:    address(),
		RecipientAddress: address(),
	})
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
}

func TestTrackingWithoutDelivery(t *testing.T) {
	repo, tr, u1, _ := acceptedTrade(t)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Tracking(context.Background(), tr.TradeID, u1)
	require.Equal(t, domainTrade.KindNotFound, domainTrade.KindOf(err))
}

func TestTrackingForbiddenForStranger(t *testing.T) {
	repo, tr, u1, _ := acceptedTrade(t)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Configure(context.Background(), tr.TradeID, u1, ConfigureInput{
		Carrier:          domainTrade.CarrierPickupPoint,
		SenderAddress:    address(),
		RecipientAddress: address(),
	})
	require.NoError(t, err)

	_, err = svc.Tracking(context.Background(), tr.TradeID, uuid.New())
	require.Equal(t, domainTrade.KindForbidden, domainTrade.KindOf(err))
}

func TestUpdateTracking(t *testing.T) {
	repo, tr, u1, u2 := acceptedTrade(t)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Configure(context.Background(), tr.TradeID, u1, ConfigureInput{
		Carrier:          domainTrade.CarrierColissimo,
		SenderAddress:    address(),
		RecipientAddress: address(),
	})
	require.NoError(t, err)

	got, err := svc.UpdateTracking(context.Background(), tr.TradeID, "in_transit")
	require.NoError(t, err)
	require.Equal(t, "in_transit", got.Delivery.TrackingStatus)

	status, err := svc.Tracking(context.Background(), tr.TradeID, u2)
	require.NoError(t, err)
	require.Equal(t, "in_transit", status)

	_, err = svc.UpdateTracking(context.Background(), tr.TradeID, "   ")
	require.Equal(t, domainTrade.KindValidation, domainTrade.KindOf(err))
}
