package domain

import (
	"strconv"
	"strings"
)

// Entity is one structured field the extraction service pulled out of an
// uploaded document.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractedDocument is the normalized extraction output for an uploaded
// document. Produced once by the external OCR collaborator; immutable.
type ExtractedDocument struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Entity value types emitted by the extraction service for invoices.
const (
	EntityTotalTaxAmount = "total_tax_amount"
	EntityNetAmount      = "net_amount"
)

// IsFinancial reports whether the document carries a detected tax or net
// amount, which classifies it as a financial document for audit purposes.
func (d *ExtractedDocument) IsFinancial() bool {
	for _, e := range d.Entities {
		if e.Type == EntityTotalTaxAmount || e.Type == EntityNetAmount {
			if _, ok := ParseAmount(e.Value); ok {
				return true
			}
		}
	}
	return false
}

// ParseAmount parses a monetary entity value, tolerating currency symbols and
// Indian digit grouping ("2,00,000").
func ParseAmount(value string) (float64, bool) {
	clean := strings.TrimSpace(value)
	clean = strings.NewReplacer("$", "", "₹", "", ",", "", " ", "").Replace(clean)
	if clean == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// AuditVerdict is the outcome of auditing an extracted document against one
// retrieved rule. It is folded into the uploaded document's status by the
// record-storage layer; it is not persisted here.
type AuditVerdict struct {
	IsFlagged bool   `json:"is_flagged"`
	Reason    string `json:"reason,omitempty"`
}
