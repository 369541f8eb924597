// Package aggregation turns a flat snapshot of ledger records into the
// monthly view rendered by the Mini App.
//
// Everything here is pure: no I/O, no logging, no shared state. Calling a
// function twice with the same inputs yields the same output, so callers may
// run it concurrently over an immutable snapshot or memoize the result.
package aggregation

import (
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel names the group of transactions that have neither a
// resolvable category nor a comment.
const UncategorizedLabel = "Uncategorized"

// ComputeLedgerView builds the view of the ledger titled activeLedgerTitle for
// the given month. It returns nil when no ledger has that title.
//
// The cumulative balance covers every transaction up to the end of month; the
// month totals and groups cover only transactions inside month. Transactions
// whose amount is invalid contribute zero and are counted in MalformedAmounts.
func ComputeLedgerView(
	ledgers []domain.Ledger,
	transactions []domain.Transaction,
	categories []domain.Category,
	creditItems []domain.CreditItem,
	activeLedgerTitle string,
	month domain.YearMonth,
) *domain.LedgerView {
	ledger, ok := findLedger(ledgers, activeLedgerTitle)
	if !ok {
		return nil
	}

	catByID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}

	end := month.End()
	var (
		cumIncome, cumExpense     = decimal.Zero, decimal.Zero
		monthIncome, monthExpense = decimal.Zero, decimal.Zero
		malformed                 int
	)
	income := newGroupSet(domain.Income)
	expense := newGroupSet(domain.Expense)

	for _, tx := range transactions {
		if tx.LedgerID != ledger.ID || !tx.OccurredAt.Before(end) {
			continue
		}
		if !tx.Kind.Valid() {
			continue
		}

		amount := decimal.Zero
		if tx.Amount.Valid {
			amount = tx.Amount.Decimal
		} else {
			malformed++
		}

		inMonth := month.Contains(tx.OccurredAt)
		switch tx.Kind {
		case domain.Income:
			cumIncome = cumIncome.Add(amount)
			if inMonth {
				monthIncome = monthIncome.Add(amount)
				income.add(tx, amount, catByID)
			}
		case domain.Expense:
			cumExpense = cumExpense.Add(amount)
			if inMonth {
				monthExpense = monthExpense.Add(amount)
				expense.add(tx, amount, catByID)
			}
		}
	}

	credits := make([]domain.CreditItem, 0)
	for _, c := range creditItems {
		if c.LedgerID == ledger.ID {
			credits = append(credits, c)
		}
	}

	return &domain.LedgerView{
		Ledger:            ledger,
		Month:             month,
		CumulativeBalance: cumIncome.Sub(cumExpense),
		MonthIncome:       monthIncome,
		MonthExpense:      monthExpense,
		IncomeGroups:      income.groups,
		ExpenseGroups:     expense.groups,
		CreditItems:       credits,
		Debts:             []domain.Debt{},
		MalformedAmounts:  malformed,
	}
}

// ComputeSnapshotView is ComputeLedgerView over a whole snapshot, with the
// ledger's debts attached.
func ComputeSnapshotView(snap *domain.Snapshot, activeLedgerTitle string, month domain.YearMonth) *domain.LedgerView {
	view := ComputeLedgerView(snap.Ledgers, snap.Transactions, snap.Categories, snap.CreditItems, activeLedgerTitle, month)
	if view == nil {
		return nil
	}
	for _, d := range snap.Debts {
		if d.LedgerID == view.Ledger.ID {
			view.Debts = append(view.Debts, d)
		}
	}
	return view
}

func findLedger(ledgers []domain.Ledger, title string) (domain.Ledger, bool) {
	for _, l := range ledgers {
		if l.Title == title {
			return l, true
		}
	}
	return domain.Ledger{}, false
}

// groupSet accumulates groups of one kind in first-seen order.
type groupSet struct {
	kind   domain.TxKind
	groups []domain.Group
	index  map[string]int
}

func newGroupSet(kind domain.TxKind) *groupSet {
	return &groupSet{kind: kind, groups: make([]domain.Group, 0), index: make(map[string]int)}
}

func (s *groupSet) add(tx domain.Transaction, amount decimal.Decimal, catByID map[string]domain.Category) {
	key, group := groupFor(tx, catByID)
	i, ok := s.index[key]
	if !ok {
		group.Kind = s.kind
		group.Total = decimal.Zero
		s.groups = append(s.groups, group)
		i = len(s.groups) - 1
		s.index[key] = i
	}
	s.groups[i].Total = s.groups[i].Total.Add(amount)
	s.groups[i].Count++
}

// groupFor resolves the grouping key of tx and the display fields of a new
// group. Keys are prefixed so a comment can never collide with a category id.
// A category id that no longer resolves falls back to the comment text.
func groupFor(tx domain.Transaction, catByID map[string]domain.Category) (string, domain.Group) {
	if tx.CategoryID != "" {
		if c, ok := catByID[tx.CategoryID]; ok {
			return "cat:" + c.ID, domain.Group{Name: c.Name, Icon: c.Icon, CategoryID: c.ID}
		}
	}
	name := strings.TrimSpace(tx.Comment)
	if name == "" {
		name = UncategorizedLabel
	}
	return "txt:" + name, domain.Group{Name: name}
}
