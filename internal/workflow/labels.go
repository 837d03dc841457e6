package workflow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Display labels match the French UI wording. Both maps are total over their
// enum: every valid value has a fixed, non-empty label.

var statusLabels = map[Status]string{
	StatusPending:    "En attente",
	StatusProcessing: "En cours de validation",
	StatusApproved:   "Approuvée",
	StatusRejected:   "Rejetée",
}

var stageLabels = map[Stage]string{
	StageNeed:           "Expression du besoin",
	StageSourcing:       "Consultation fournisseurs",
	StageValidation:     "En validation",
	StagePendingPayment: "En attente de paiement",
	StageInvoiced:       "Facturé & Payé",
}

// Label returns the display string for the status. Unknown values fall back
// to the raw enum value so nothing ever renders empty.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Label returns the display string for the stage.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

const (
	groupSep   = " " // no-break space between thousand groups
	euroSuffix = " €"
)

// FormatEUR renders an amount as a fixed-point French euro string, e.g.
// "1 234,56 €". The formatting is deterministic: same input, same output.
func FormatEUR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart := fixed
	fracPart := "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(groupSep)
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	b.WriteString(euroSuffix)
	return b.String()
}
