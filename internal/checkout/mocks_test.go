package checkout

import (
	"context"
	"errors"

	"github.com/hajarsalhi/book-store-sub000/internal/checkout/repository"
	"github.com/hajarsalhi/book-store-sub000/internal/client"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"github.com/hajarsalhi/book-store-sub000/internal/pricing"
)

// MockRepository implements repository.Store for testing
type MockRepository struct {
	GetKey    *string
	GetStatus *domain.CheckoutStatus
	GetErr    error
	Active    bool

	CreatedSession   *repository.CheckoutSession
	StatusHistory    []domain.CheckoutStatus
	FailureReason    string
	OrderID          string
	CompletedPayload []byte
}

func (m *MockRepository) GetSessionByIdempotencyKey(_ context.Context, _ string) (*string, *domain.CheckoutStatus, error) {
	if m.GetKey == nil && m.GetErr == nil {
		return nil, nil, repository.ErrIdempotencyKeyNotFound
	}
	return m.GetKey, m.GetStatus, m.GetErr
}

func (m *MockRepository) HasActiveSession(_ context.Context, _ string) (bool, error) {
	return m.Active, nil
}

func (m *MockRepository) CreateSession(_ context.Context, session *repository.CheckoutSession) error {
	m.CreatedSession = session
	m.StatusHistory = append(m.StatusHistory, domain.CheckoutStatusInitiated)
	return nil
}

func (m *MockRepository) UpdateSessionStatus(_ context.Context, _ string, status domain.CheckoutStatus) error {
	m.StatusHistory = append(m.StatusHistory, status)
	return nil
}

func (m *MockRepository) FailSession(_ context.Context, _ string, reason string) error {
	m.StatusHistory = append(m.StatusHistory, domain.CheckoutStatusFailed)
	m.FailureReason = reason
	return nil
}

func (m *MockRepository) SetOrder(_ context.Context, _ string, orderID string, status domain.CheckoutStatus) error {
	m.OrderID = orderID
	m.StatusHistory = append(m.StatusHistory, status)
	return nil
}

func (m *MockRepository) CompleteSession(_ context.Context, _ string, payload []byte) error {
	m.StatusHistory = append(m.StatusHistory, domain.CheckoutStatusCompleted)
	m.CompletedPayload = payload
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, _ int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, _ int64) error {
	return nil
}

func (m *MockRepository) GetStuckSessions(_ context.Context) ([]*repository.CheckoutSession, error) {
	return nil, nil
}

func (m *MockRepository) Close() error {
	return nil
}

// MockCartStore serves a fixed cart and records whether it was cleared.
type MockCartStore struct {
	Cart    *domain.Cart
	GetErr  error
	Cleared bool
}

func (m *MockCartStore) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Cart, nil
}

func (m *MockCartStore) Clear(_ context.Context, _ string) error {
	m.Cleared = true
	return nil
}

// mockCouponService and mockLoyaltyService back a real pricing engine so the
// quote math in results is the production math.
type mockCouponService struct {
	coupon *domain.Coupon
	err    error
}

func (m *mockCouponService) ValidateCoupon(_ context.Context, _ string, _ float64) (*domain.Coupon, error) {
	return m.coupon, m.err
}

type mockLoyaltyService struct {
	percent float64
	err     error
}

func (m *mockLoyaltyService) LoyaltyDiscountPercent(_ context.Context) (float64, error) {
	return m.percent, m.err
}

// MockOrders captures the submitted order and replies with a canned creation.
type MockOrders struct {
	Creation *client.OrderCreation
	Err      error

	SubmittedItems []domain.OrderItem
	SubmittedTotal float64
	Called         bool
}

func (m *MockOrders) CreateOrder(_ context.Context, items []domain.OrderItem, totalAmount float64, _ domain.AppliedDiscounts) (*client.OrderCreation, error) {
	m.Called = true
	m.SubmittedItems = items
	m.SubmittedTotal = totalAmount
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Creation, nil
}

// MockLibrary records unlock order and fails the configured books.
type MockLibrary struct {
	FailFor  map[string]bool
	Unlocked []string
}

func (m *MockLibrary) AddToLibrary(_ context.Context, bookID string) error {
	m.Unlocked = append(m.Unlocked, bookID)
	if m.FailFor[bookID] {
		return errors.New("library service unavailable")
	}
	return nil
}

// newTestCheckoutService wires a Service with a real pricing engine on top of
// the mocks.
func newTestCheckoutService(
	repo *MockRepository,
	cart *MockCartStore,
	coupons *mockCouponService,
	loyalty *mockLoyaltyService,
	orders *MockOrders,
	library *MockLibrary,
) *Service {
	engine := pricing.NewEngine(coupons, loyalty)
	return NewService(repo, cart, engine, orders, library)
}
