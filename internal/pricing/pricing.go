package pricing

import (
	"fmt"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/shopspring/decimal"
)

type Config struct {
	Standard       decimal.Decimal
	Premium        decimal.Decimal
	PremiumFromRow int
}

// DefaultConfig prices rows A-C as Standard (100) and everything behind them
// as Premium (150).
func DefaultConfig() Config {
	return Config{
		Standard:       decimal.NewFromInt(100),
		Premium:        decimal.NewFromInt(150),
		PremiumFromRow: 3,
	}
}

// Policy is the two-tier, row-based price list. The zero value is not usable,
// build one with New.
type Policy struct {
	cfg Config
}

func New(cfg Config) (*Policy, error) {
	const op = "pricing.New"

	if cfg.PremiumFromRow < 0 {
		return nil, fmt.Errorf("%s: premium row must not be negative", op)
	}

	if !cfg.Standard.IsPositive() {
		return nil, fmt.Errorf("%s: standard price must be positive", op)
	}

	if !cfg.Premium.GreaterThan(cfg.Standard) {
		return nil, fmt.Errorf("%s: premium price must exceed standard price", op)
	}

	return &Policy{cfg: cfg}, nil
}

// MustNew is New for static configuration.
func MustNew(cfg Config) *Policy {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Policy) TierForRow(row int) domain.Tier {
	if row < p.cfg.PremiumFromRow {
		return domain.TierStandard
	}
	return domain.TierPremium
}

func (p Policy) PriceForRow(row int) decimal.Decimal {
	if p.TierForRow(row) == domain.TierStandard {
		return p.cfg.Standard
	}
	return p.cfg.Premium
}

// Quote prices every seat and returns the priced seats with their sum.
func (p Policy) Quote(seats []domain.Seat) ([]domain.PricedSeat, decimal.Decimal) {
	total := decimal.Zero
	out := make([]domain.PricedSeat, 0, len(seats))

	for _, s := range seats {
		price := p.PriceForRow(s.Row)
		total = total.Add(price)
		out = append(out, domain.PricedSeat{
			Seat:  s,
			Tier:  p.TierForRow(s.Row),
			Price: price,
		})
	}

	return out, total
}
