package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// ExchangeRate is the versioned conversion rate for one currency pair.
// The logical key is FromCurrency->ToCurrency.
type ExchangeRate struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromCurrency enums.Currency  `gorm:"column:from_currency;type:text;not null"`
	ToCurrency   enums.Currency  `gorm:"column:to_currency;type:text;not null"`
	Rate         decimal.Decimal `gorm:"column:rate;type:numeric(18,8);not null"`
	Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
