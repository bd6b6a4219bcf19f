package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/govalues/decimal"

	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/models"
)

const (
	MinStars = 50
	MaxStars = 1_000_000
)

var minExchangeRUB = decimal.MustNew(100, 0)

// Catalog prices the goods. Prices are computed once, when the order is
// created, and stored with it.
type Catalog struct {
	starRate decimal.Decimal
	usdRate  decimal.Decimal
	premium  map[models.PremiumPeriod]decimal.Decimal
}

func NewCatalog(cfg config.Config) *Catalog {
	return &Catalog{
		starRate: cfg.StarRate,
		usdRate:  cfg.USDRate,
		premium: map[models.PremiumPeriod]decimal.Decimal{
			models.Premium3Months: cfg.PremiumPrice3M,
			models.Premium6Months: cfg.PremiumPrice6M,
			models.Premium1Year:   cfg.PremiumPrice1Y,
		},
	}
}

func (c *Catalog) StarRate() decimal.Decimal { return c.starRate }

func (c *Catalog) USDRate() decimal.Decimal { return c.usdRate }

// ParseStarsQuantity reads a star count typed by the user.
func ParseStarsQuantity(text string) (int64, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, invalid("quantity", "введите целое число звезд")
	}
	if quantity < MinStars {
		return 0, invalid("quantity", fmt.Sprintf("минимальное количество звезд: %d", MinStars))
	}
	if quantity > MaxStars {
		return 0, invalid("quantity", fmt.Sprintf("максимальное количество звезд: %d", MaxStars))
	}
	return quantity, nil
}

// StarsPrice returns the RUB price of quantity stars.
func (c *Catalog) StarsPrice(quantity int64) (decimal.Decimal, error) {
	if quantity < MinStars || quantity > MaxStars {
		return decimal.Zero, invalid("quantity", fmt.Sprintf("количество звезд должно быть от %d до %d", MinStars, MaxStars))
	}
	q, err := decimal.New(quantity, 0)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stars quantity: %w", err)
	}
	price, err := c.starRate.Mul(q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stars price: %w", err)
	}
	return money(price), nil
}

func (c *Catalog) PremiumPrice(period models.PremiumPeriod) (decimal.Decimal, error) {
	price, ok := c.premium[period]
	if !ok {
		return decimal.Zero, invalid("period", "неизвестный срок подписки")
	}
	return money(price), nil
}

// Exchange parses a RUB amount and converts it to USD at the configured rate.
func (c *Catalog) Exchange(text string) (models.ExchangeDetails, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := decimal.Parse(raw)
	if err != nil {
		return models.ExchangeDetails{}, invalid("amount", "введите сумму числом, например 1500")
	}
	if amount.Cmp(minExchangeRUB) < 0 {
		return models.ExchangeDetails{}, invalid("amount", fmt.Sprintf("минимальная сумма обмена: %s ₽", minExchangeRUB))
	}
	target, err := amount.Quo(c.usdRate)
	if err != nil {
		return models.ExchangeDetails{}, fmt.Errorf("exchange amount: %w", err)
	}
	return models.ExchangeDetails{
		SourceAmount: money(amount),
		TargetAmount: money(target),
		Rate:         c.usdRate,
	}, nil
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2).Pad(2)
}
