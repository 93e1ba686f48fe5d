package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ratecollector/internal/model"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetExchangeRates(ctx context.Context, currency string, days int) ([]model.RateRecord, error) {
	args := m.Called(ctx, currency, days)
	records, _ := args.Get(0).([]model.RateRecord)
	return records, args.Error(1)
}
