package pricing

import (
	"testing"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyTiers(t *testing.T) {
	p := MustNew(DefaultConfig())

	tests := []struct {
		row   int
		tier  domain.Tier
		price int64
	}{
		{row: 0, tier: domain.TierStandard, price: 100},
		{row: 1, tier: domain.TierStandard, price: 100},
		{row: 2, tier: domain.TierStandard, price: 100},
		{row: 3, tier: domain.TierPremium, price: 150},
		{row: 6, tier: domain.TierPremium, price: 150},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, p.TierForRow(tt.row), "row %d", tt.row)
		assert.True(t, decimal.NewFromInt(tt.price).Equal(p.PriceForRow(tt.row)), "row %d", tt.row)
	}
}

func TestPolicyQuote(t *testing.T) {
	p := MustNew(DefaultConfig())

	seats, total := p.Quote([]domain.Seat{{Row: 0, Col: 0}, {Row: 3, Col: 3}})

	require.Len(t, seats, 2)
	assert.Equal(t, domain.TierStandard, seats[0].Tier)
	assert.Equal(t, domain.TierPremium, seats[1].Tier)
	assert.True(t, decimal.NewFromInt(250).Equal(total))
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "premium not above standard",
			cfg:  Config{Standard: decimal.NewFromInt(100), Premium: decimal.NewFromInt(100)},
		},
		{
			name: "negative premium row",
			cfg:  Config{Standard: decimal.NewFromInt(1), Premium: decimal.NewFromInt(2), PremiumFromRow: -1},
		},
		{
			name: "zero standard",
			cfg:  Config{Standard: decimal.Zero, Premium: decimal.NewFromInt(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}
