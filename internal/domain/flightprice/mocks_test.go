package flightprice

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/okian/stipend/internal/domain/model"
)

type MockStrategy struct {
	mock.Mock
	name string
}

func (m *MockStrategy) Name() string { return m.name }

func (m *MockStrategy) Resolve(ctx context.Context, q Query) (model.PriceResult, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.PriceResult), args.Error(1)
}

type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Search(ctx context.Context, q Query) ScrapeResult {
	args := m.Called(ctx, q)
	return args.Get(0).(ScrapeResult)
}

type MockFlightAPI struct {
	mock.Mock
}

func (m *MockFlightAPI) Offers(ctx context.Context, q OfferQuery) ([]Offer, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offer), args.Error(1)
}

type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Open(ctx context.Context, q Query) (Session, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Session), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) SetCurrency(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockSession) Fares(ctx context.Context) ([]Fare, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Fare), args.Error(1)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}

type staticLocator map[string]string

func (s staticLocator) AirportFor(_ context.Context, location string) (string, bool) {
	code, ok := s[location]
	return code, ok
}
