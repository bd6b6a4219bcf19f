package models

import (
	"encoding/json"
	"fmt"

	"github.com/govalues/decimal"
)

// OrderDetails is the kind-specific part of an order. The concrete type is
// always one of StarsDetails, PremiumDetails or ExchangeDetails.
type OrderDetails interface {
	Kind() OrderKind
}

type StarsDetails struct {
	Quantity int64
}

func (StarsDetails) Kind() OrderKind { return KindStars }

type PremiumDetails struct {
	Period PremiumPeriod
}

func (PremiumDetails) Kind() OrderKind { return KindPremium }

type ExchangeDetails struct {
	SourceAmount decimal.Decimal // RUB paid by the user
	TargetAmount decimal.Decimal // USD handed out
	Rate         decimal.Decimal // RUB per USD at creation time
}

func (ExchangeDetails) Kind() OrderKind { return KindExchange }

// detailsRecord is the persisted JSON shape of the details column.
type detailsRecord struct {
	Stars        int64         `json:"stars,omitempty"`
	Period       PremiumPeriod `json:"period,omitempty"`
	AmountRUB    string        `json:"amount_rub,omitempty"`
	AmountUSD    string        `json:"amount_usd,omitempty"`
	ExchangeRate string        `json:"exchange_rate,omitempty"`
	PaymentProof
}

// EncodeDetails renders details and proof into the details column payload.
func EncodeDetails(details OrderDetails, proof PaymentProof) ([]byte, error) {
	rec := detailsRecord{PaymentProof: proof}
	switch d := details.(type) {
	case StarsDetails:
		rec.Stars = d.Quantity
	case PremiumDetails:
		rec.Period = d.Period
	case ExchangeDetails:
		rec.AmountRUB = d.SourceAmount.String()
		rec.AmountUSD = d.TargetAmount.String()
		rec.ExchangeRate = d.Rate.String()
	case nil:
		return nil, fmt.Errorf("order details are missing")
	default:
		return nil, fmt.Errorf("unsupported order details %T", details)
	}
	return json.Marshal(rec)
}

// DecodeDetails parses a details column payload for an order of the given kind.
func DecodeDetails(kind OrderKind, raw []byte) (OrderDetails, PaymentProof, error) {
	var rec detailsRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, PaymentProof{}, fmt.Errorf("decode %s details: %w", kind, err)
		}
	}

	switch kind {
	case KindStars:
		return StarsDetails{Quantity: rec.Stars}, rec.PaymentProof, nil
	case KindPremium:
		return PremiumDetails{Period: rec.Period}, rec.PaymentProof, nil
	case KindExchange:
		var d ExchangeDetails
		var err error
		if d.SourceAmount, err = parseOptional(rec.AmountRUB); err != nil {
			return nil, PaymentProof{}, fmt.Errorf("decode amount_rub: %w", err)
		}
		if d.TargetAmount, err = parseOptional(rec.AmountUSD); err != nil {
			return nil, PaymentProof{}, fmt.Errorf("decode amount_usd: %w", err)
		}
		if d.Rate, err = parseOptional(rec.ExchangeRate); err != nil {
			return nil, PaymentProof{}, fmt.Errorf("decode exchange_rate: %w", err)
		}
		return d, rec.PaymentProof, nil
	default:
		return nil, PaymentProof{}, fmt.Errorf("unknown order kind %q", kind)
	}
}

func parseOptional(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.Parse(s)
}
