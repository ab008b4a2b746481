package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

type MockPlacesSource struct {
	mock.Mock
	name entities.SourceKind
}

func NewMockPlacesSource(name entities.SourceKind) *MockPlacesSource {
	return &MockPlacesSource{name: name}
}

func (m *MockPlacesSource) Name() entities.SourceKind {
	return m.name
}

func (m *MockPlacesSource) Search(ctx context.Context, center entities.Coordinate, radiusMeters int, categories []string) ([]entities.RawFacility, error) {
	args := m.Called(ctx, center, radiusMeters, categories)
	facilities, _ := args.Get(0).([]entities.RawFacility)
	return facilities, args.Error(1)
}

type MockDistanceMatrix struct {
	mock.Mock
}

func (m *MockDistanceMatrix) GetDistances(ctx context.Context, origin entities.Coordinate, destinations []entities.Coordinate) ([]entities.TravelEstimate, error) {
	args := m.Called(ctx, origin, destinations)
	estimates, _ := args.Get(0).([]entities.TravelEstimate)
	return estimates, args.Error(1)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListAll(ctx context.Context) ([]*entities.CatalogMedicine, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]*entities.CatalogMedicine)
	return rows, args.Error(1)
}

func (m *MockCatalogRepository) Upsert(ctx context.Context, medicine *entities.CatalogMedicine) error {
	return m.Called(ctx, medicine).Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.AggregationEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entities.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*entities.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*entities.Order)
	return order, args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) SendCompletionNotice(ctx context.Context, notice *entities.ConsultationCompletionNotice) error {
	return m.Called(ctx, notice).Error(0)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	args := m.Called(ctx, address)
	c, _ := args.Get(0).(*entities.Coordinate)
	return c, args.Error(1)
}
