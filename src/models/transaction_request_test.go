package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAmountUnmarshalJSON(t *testing.T) {
	tests := []struct {
		body    string
		want    Amount
		wantErr bool
	}{
		{`12.5`, 12.5, false},
		{`"-40"`, -40, false},
		{`" 7.25 "`, 7.25, false},
		{`"lots"`, 0, true},
		{`"NaN"`, 0, true},
		{`"Inf"`, 0, true},
		{`"+Inf"`, 0, true},
		{`"-Infinity"`, 0, true},
		{`"1e400"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req CreateTransactionRequest
			err := json.Unmarshal([]byte(`{"amount":`+tt.body+`}`), &req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidAmount", tt.body, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.body, err)
			}
			if req.Amount == nil || *req.Amount != tt.want {
				t.Errorf("Amount = %v, want %v", req.Amount, tt.want)
			}
		})
	}
}

func TestExportBoundsRejectNonFinite(t *testing.T) {
	var req ExportRequest
	if err := json.Unmarshal([]byte(`{"minAmount":"NaN"}`), &req); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("minAmount NaN error = %v, want ErrInvalidAmount", err)
	}
	if err := json.Unmarshal([]byte(`{"maxAmount":"Infinity"}`), &req); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("maxAmount Infinity error = %v, want ErrInvalidAmount", err)
	}
}
