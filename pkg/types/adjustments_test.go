package types

import (
	"encoding/json"
	"testing"
)

func TestVariableAdjustmentUnmarshalAcceptsNumberOrString(t *testing.T) {
	var adjustments VariableAdjustments
	payload := []byte(`{"sellingFactor":"sellingFactor*0.97","fabricationCost":12.5}`)
	if err := json.Unmarshal(payload, &adjustments); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	factor, ok := adjustments["sellingFactor"]
	if !ok || factor.IsLiteral() || factor.Formula != "sellingFactor*0.97" {
		t.Fatalf("expected formula adjustment, got %+v", factor)
	}

	cost, ok := adjustments["fabricationCost"]
	if !ok || !cost.IsLiteral() || *cost.Literal != 12.5 {
		t.Fatalf("expected literal adjustment, got %+v", cost)
	}
}

func TestVariableAdjustmentRejectsObjects(t *testing.T) {
	var adjustment VariableAdjustment
	if err := json.Unmarshal([]byte(`{"nested":true}`), &adjustment); err == nil {
		t.Fatal("expected object payload to be rejected")
	}
}

func TestVariableAdjustmentRoundTrip(t *testing.T) {
	in := VariableAdjustments{
		"sellingFactor": FormulaAdjustment("sellingFactor*0.97"),
		"wastage":       LiteralAdjustment(0.02),
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out VariableAdjustments
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out["sellingFactor"].Formula != "sellingFactor*0.97" {
		t.Fatalf("formula lost in round trip: %+v", out["sellingFactor"])
	}
	if !out["wastage"].IsLiteral() || *out["wastage"].Literal != 0.02 {
		t.Fatalf("literal lost in round trip: %+v", out["wastage"])
	}
}
