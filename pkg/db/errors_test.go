package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "postgres duplicate key", err: errors.New(`duplicate key value violates unique constraint "idx_commodity_prices_single_active"`), want: true},
		{name: "sqlite unique constraint", err: errors.New("UNIQUE constraint failed: price_rows.key_code"), want: true},
		{name: "named constraint match", err: errors.New(`duplicate key value violates unique constraint "idx_markup_factors_single_active"`), constraint: "idx_markup_factors_single_active", want: true},
		{name: "named constraint mismatch", err: errors.New(`duplicate key value violates unique constraint "other_idx"`), constraint: "idx_markup_factors_single_active", want: false},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tt.err, tt.constraint, got, tt.want)
			}
		})
	}
}
