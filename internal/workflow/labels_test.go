package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLabels_Total(t *testing.T) {
	for _, s := range Statuses {
		first := s.Label()
		if first == "" {
			t.Errorf("status %s has no label", s)
		}
		if s.Label() != first {
			t.Errorf("status %s label is not stable", s)
		}
	}
	for _, s := range Stages {
		first := s.Label()
		if first == "" {
			t.Errorf("stage %s has no label", s)
		}
		if s.Label() != first {
			t.Errorf("stage %s label is not stable", s)
		}
	}
}

func TestLabels_Golden(t *testing.T) {
	statusWant := map[Status]string{
		StatusPending:    "En attente",
		StatusProcessing: "En cours de validation",
		StatusApproved:   "Approuvée",
		StatusRejected:   "Rejetée",
	}
	for s, want := range statusWant {
		if got := s.Label(); got != want {
			t.Errorf("Label(%s) = %q, want %q", s, got, want)
		}
	}

	stageWant := map[Stage]string{
		StageNeed:           "Expression du besoin",
		StageSourcing:       "Consultation fournisseurs",
		StageValidation:     "En validation",
		StagePendingPayment: "En attente de paiement",
		StageInvoiced:       "Facturé & Payé",
	}
	for s, want := range stageWant {
		if got := s.Label(); got != want {
			t.Errorf("Label(%s) = %q, want %q", s, got, want)
		}
	}

	// Unknown values fall back to the raw value instead of rendering empty.
	if got := Stage("ARCHIVED").Label(); got != "ARCHIVED" {
		t.Errorf("fallback label = %q", got)
	}
}

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00 €"},
		{"12.5", "12,50 €"},
		{"1234.56", "1 234,56 €"},
		{"987654321.999", "987 654 322,00 €"},
		{"-42000", "-42 000,00 €"},
	}
	for _, tc := range tests {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tc.in, err)
		}
		if got := FormatEUR(d); got != tc.want {
			t.Errorf("FormatEUR(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
