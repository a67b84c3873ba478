package domain_test

import (
	"math/big"
	"testing"

	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sale(pixel int, ts int64, price int64) domain.PriceChangeEvent {
	return domain.PriceChangeEvent{
		PixelID:   pixel,
		Timestamp: ts,
		PriceWei:  big.NewInt(price),
		EventType: domain.EventSale,
	}
}

func TestComputeStats_NoSales(t *testing.T) {
	stats := domain.ComputeStats(nil)

	assert.Equal(t, 0, stats.TotalSales)
	assert.Zero(t, stats.MinPrice.Sign())
	assert.Zero(t, stats.MaxPrice.Sign())
	assert.Zero(t, stats.AvgPrice.Sign())
}

func TestComputeStats_IgnoresListings(t *testing.T) {
	events := []domain.PriceChangeEvent{
		{PixelID: 7, Timestamp: 1, PriceWei: big.NewInt(999), EventType: domain.EventListed},
		{PixelID: 7, Timestamp: 2, PriceWei: big.NewInt(0), EventType: domain.EventRemoved},
	}

	stats := domain.ComputeStats(events)
	assert.Equal(t, 0, stats.TotalSales)
}

func TestComputeStats_TwoSales(t *testing.T) {
	stats := domain.ComputeStats([]domain.PriceChangeEvent{
		sale(7, 1000, 10),
		sale(7, 2000, 30),
	})

	assert.Equal(t, 2, stats.TotalSales)
	assert.Equal(t, int64(10), stats.MinPrice.Int64())
	assert.Equal(t, int64(30), stats.MaxPrice.Int64())
	assert.Equal(t, int64(20), stats.AvgPrice.Int64())
}

func TestComputeStats_AverageTruncates(t *testing.T) {
	// floor((10 + 10 + 11) / 3) = 10
	stats := domain.ComputeStats([]domain.PriceChangeEvent{
		sale(1, 1, 10),
		sale(1, 2, 10),
		sale(1, 3, 11),
	})

	assert.Equal(t, int64(10), stats.AvgPrice.Int64())
}

func TestComputeStats_ArbitraryPrecision(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	events := []domain.PriceChangeEvent{
		{PixelID: 3, Timestamp: 1, PriceWei: huge, EventType: domain.EventSale},
		{PixelID: 3, Timestamp: 2, PriceWei: new(big.Int).Mul(huge, big.NewInt(3)), EventType: domain.EventSale},
	}

	stats := domain.ComputeStats(events)
	assert.Equal(t, 2, stats.TotalSales)
	assert.Equal(t, huge, stats.MinPrice)
	// avg = (huge + 3*huge) / 2 = 2*huge
	assert.Equal(t, new(big.Int).Mul(huge, big.NewInt(2)), stats.AvgPrice)
}

func TestComputeStats_DoesNotMutateInputs(t *testing.T) {
	a := sale(1, 1, 10)
	b := sale(1, 2, 30)
	domain.ComputeStats([]domain.PriceChangeEvent{a, b})

	assert.Equal(t, int64(10), a.PriceWei.Int64())
	assert.Equal(t, int64(30), b.PriceWei.Int64())
}
