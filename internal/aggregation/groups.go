package aggregation

import (
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"
)

// GroupMembers returns the ids of the ledger's transactions that fall into
// the group selected by sel within month, using the same key resolution as
// ComputeLedgerView. A selector with a CategoryID matches that category's
// group; otherwise Name matches a comment group.
func GroupMembers(
	transactions []domain.Transaction,
	categories []domain.Category,
	ledgerID string,
	month domain.YearMonth,
	sel domain.GroupSelector,
) []string {
	catByID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}

	want := "txt:" + strings.TrimSpace(sel.Name)
	if sel.CategoryID != "" {
		want = "cat:" + sel.CategoryID
	}

	ids := make([]string, 0)
	for _, tx := range transactions {
		if tx.LedgerID != ledgerID || tx.Kind != sel.Kind || !month.Contains(tx.OccurredAt) {
			continue
		}
		if key, _ := groupFor(tx, catByID); key == want {
			ids = append(ids, tx.ID)
		}
	}
	return ids
}
