package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no exchange rate covers a currency.
var ErrUnknownCurrency = errors.New("currency: unknown currency")

// CurrencyConverter converts display-currency amounts into the fixed
// settlement currency. Rates express the settlement value of one unit of the
// foreign currency, e.g. a USD rate of 110.25 means 1 USD = 110.25 BDT.
type CurrencyConverter struct {
	settlement string
	rates      map[string]decimal.Decimal
}

// NewCurrencyConverter parses the configured rate table.
func NewCurrencyConverter(settlement string, rates map[string]string) (*CurrencyConverter, error) {
	settlement = strings.ToUpper(strings.TrimSpace(settlement))
	if settlement == "" {
		return nil, errors.New("currency: settlement currency is required")
	}

	parsed := make(map[string]decimal.Decimal, len(rates)+1)
	parsed[settlement] = decimal.NewFromInt(1)
	for currency, raw := range rates {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("currency: invalid rate for %s: %w", currency, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("currency: rate for %s must be positive", currency)
		}
		parsed[strings.ToUpper(strings.TrimSpace(currency))] = rate
	}

	return &CurrencyConverter{settlement: settlement, rates: parsed}, nil
}

// Settlement returns the settlement currency code.
func (c *CurrencyConverter) Settlement() string {
	return c.settlement
}

// Convert translates an amount in minor units between two known currencies,
// rounding half up to the nearest minor unit.
func (c *CurrencyConverter) Convert(amount int64, from, to string) (int64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}

	fromRate, ok := c.rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	converted := decimal.NewFromInt(amount).Mul(fromRate).Div(toRate)
	return converted.Round(0).IntPart(), nil
}

// ToSettlement converts a display-currency amount into the settlement currency.
func (c *CurrencyConverter) ToSettlement(amount int64, from string) (int64, error) {
	if strings.TrimSpace(from) == "" {
		return amount, nil
	}
	return c.Convert(amount, from, c.settlement)
}
