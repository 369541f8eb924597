package aggregation_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/pnlfinance/family-finance/internal/aggregation"
	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
)

// --- Fixtures ---

var ledgers = []domain.Ledger{
	{ID: "L1", FamilyID: "F1", Title: "Настя", Kind: domain.LedgerStandard},
	{ID: "L2", FamilyID: "F1", Title: "Глеб", Kind: domain.LedgerStandard},
	{ID: "L5", FamilyID: "F1", Title: "Кредиты", Kind: domain.LedgerCredit},
}

var categories = []domain.Category{
	{ID: "C1", LedgerID: "L1", Name: "Salary", Icon: "💰", Kind: domain.Income},
	{ID: "C2", LedgerID: "L1", Name: "Groceries", Icon: "🛒", Kind: domain.Expense},
}

func amt(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func month(t *testing.T, s string) domain.YearMonth {
	t.Helper()
	m, err := domain.ParseYearMonth(s)
	if err != nil {
		t.Fatalf("parse month %q: %v", s, err)
	}
	return m
}

func tx(id, ledger string, kind domain.TxKind, amount, category, comment, when string) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		LedgerID:   ledger,
		Amount:     amt(amount),
		Kind:       kind,
		CategoryID: category,
		Comment:    comment,
		OccurredAt: at(when),
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}

// --- Scenarios ---

func TestComputeLedgerView_CommentGroupsMerge(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "100", "", "Food", "2024-03-05T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "50", "", "Food", "2024-03-20T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))
	if view == nil {
		t.Fatal("expected view, got nil")
	}

	if len(view.ExpenseGroups) != 1 {
		t.Fatalf("expected 1 expense group, got %d", len(view.ExpenseGroups))
	}
	g := view.ExpenseGroups[0]
	if g.Name != "Food" || g.Kind != domain.Expense || g.Count != 2 {
		t.Errorf("unexpected group: %+v", g)
	}
	assertDecimal(t, "group total", g.Total, "150")
	assertDecimal(t, "monthExpense", view.MonthExpense, "150")
	if len(view.IncomeGroups) != 0 {
		t.Errorf("expected no income groups, got %d", len(view.IncomeGroups))
	}
}

func TestComputeLedgerView_CategoryGroupAndBalance(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "100", "", "Food", "2024-03-05T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "50", "", "Food", "2024-03-20T10:00:00Z"),
		tx("t3", "L1", domain.Income, "1000", "C1", "", "2024-03-01T12:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))
	if view == nil {
		t.Fatal("expected view, got nil")
	}

	want := []domain.Group{{Name: "Salary", Icon: "💰", Total: decimal.NewFromInt(1000), Kind: domain.Income, CategoryID: "C1", Count: 1}}
	if len(view.IncomeGroups) != 1 {
		t.Fatalf("expected 1 income group, got %d", len(view.IncomeGroups))
	}
	got := view.IncomeGroups[0]
	if got.Name != want[0].Name || got.Icon != want[0].Icon || got.Kind != want[0].Kind || got.CategoryID != "C1" {
		t.Errorf("unexpected income group: %+v", got)
	}
	assertDecimal(t, "income total", got.Total, "1000")
	assertDecimal(t, "cumulativeBalance", view.CumulativeBalance, "850")
}

func TestComputeLedgerView_UnknownLedger(t *testing.T) {
	view := aggregation.ComputeLedgerView(ledgers, nil, categories, nil, "Unknown", month(t, "2024-03"))
	if view != nil {
		t.Fatalf("expected nil view for unknown ledger, got %+v", view)
	}
}

func TestComputeLedgerView_MalformedAmount(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "abc", "", "Food", "2024-03-05T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "40", "", "Food", "2024-03-06T10:00:00Z"),
		tx("t3", "L1", domain.Income, "xyz", "C1", "", "2024-03-07T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))
	if view == nil {
		t.Fatal("expected view, got nil")
	}

	assertDecimal(t, "monthExpense", view.MonthExpense, "40")
	assertDecimal(t, "monthIncome", view.MonthIncome, "0")
	assertDecimal(t, "cumulativeBalance", view.CumulativeBalance, "-40")
	if view.MalformedAmounts != 2 {
		t.Errorf("expected 2 malformed amounts, got %d", view.MalformedAmounts)
	}
	assertDecimal(t, "Food total", view.ExpenseGroups[0].Total, "40")
}

func TestComputeLedgerView_CumulativeAcrossMonths(t *testing.T) {
	feb := []domain.Transaction{
		tx("t1", "L1", domain.Income, "500", "", "Bonus", "2024-01-15T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "120.50", "", "Cafe", "2024-02-10T10:00:00Z"),
	}
	febView := aggregation.ComputeLedgerView(ledgers, feb, categories, nil, "Настя", month(t, "2024-02"))

	march := append(append([]domain.Transaction{}, feb...),
		tx("t3", "L1", domain.Income, "1000", "C1", "", "2024-03-01T12:00:00Z"),
		tx("t4", "L1", domain.Expense, "300.25", "C2", "", "2024-03-31T23:59:59Z"),
		tx("t5", "L1", domain.Expense, "999", "", "Future", "2024-04-01T00:00:00Z"),
	)
	marchView := aggregation.ComputeLedgerView(ledgers, march, categories, nil, "Настя", month(t, "2024-03"))

	net := marchView.MonthIncome.Sub(marchView.MonthExpense)
	if !marchView.CumulativeBalance.Equal(febView.CumulativeBalance.Add(net)) {
		t.Errorf("expected march balance %s = feb %s + net %s",
			marchView.CumulativeBalance, febView.CumulativeBalance, net)
	}
	assertDecimal(t, "feb balance", febView.CumulativeBalance, "379.5")
	assertDecimal(t, "march balance", marchView.CumulativeBalance, "1079.25")
}

func TestComputeLedgerView_NegativeAmountSummedAsIs(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "-30", "", "Refund", "2024-03-01T00:00:00Z"),
		tx("t2", "L1", domain.Income, "100", "", "Bonus", "2024-02-29T23:59:59Z"),
		tx("t3", "L1", domain.Expense, "10", "", "Cafe", "2024-04-01T00:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))
	if view == nil {
		t.Fatal("expected a view")
	}

	assertDecimal(t, "month income", view.MonthIncome, "0")
	assertDecimal(t, "month expense", view.MonthExpense, "-30")
	assertDecimal(t, "cumulative", view.CumulativeBalance, "130")

	if len(view.ExpenseGroups) != 1 || view.ExpenseGroups[0].Name != "Refund" {
		t.Fatalf("expected one Refund group, got %+v", view.ExpenseGroups)
	}
	assertDecimal(t, "refund total", view.ExpenseGroups[0].Total, "-30")
	if len(view.IncomeGroups) != 0 {
		t.Errorf("february income must not appear in march groups, got %+v", view.IncomeGroups)
	}
	if view.MalformedAmounts != 0 {
		t.Errorf("a negative amount is not malformed, got %d", view.MalformedAmounts)
	}
}

// --- Properties ---

func TestComputeLedgerView_CategoryMergesDespiteComments(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "10", "C2", "milk", "2024-03-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "20", "", "  Taxi ", "2024-03-02T10:00:00Z"),
		tx("t3", "L1", domain.Expense, "30", "C2", "bread", "2024-03-03T10:00:00Z"),
		tx("t4", "L1", domain.Expense, "40", "", "Taxi", "2024-03-04T10:00:00Z"),
		tx("t5", "L1", domain.Expense, "5", "", "", "2024-03-05T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))

	names := []string{}
	for _, g := range view.ExpenseGroups {
		names = append(names, g.Name)
	}
	if !reflect.DeepEqual(names, []string{"Groceries", "Taxi", aggregation.UncategorizedLabel}) {
		t.Fatalf("unexpected group order: %v", names)
	}
	assertDecimal(t, "Groceries", view.ExpenseGroups[0].Total, "40")
	assertDecimal(t, "Taxi", view.ExpenseGroups[1].Total, "60")
	assertDecimal(t, "Uncategorized", view.ExpenseGroups[2].Total, "5")
}

func TestComputeLedgerView_DeletedCategoryFallsBackToComment(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "10", "gone", "Gifts", "2024-03-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "15", "", "Gifts", "2024-03-02T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))
	if len(view.ExpenseGroups) != 1 {
		t.Fatalf("expected 1 group, got %+v", view.ExpenseGroups)
	}
	if view.ExpenseGroups[0].CategoryID != "" {
		t.Errorf("expected comment group, got category %q", view.ExpenseGroups[0].CategoryID)
	}
	assertDecimal(t, "Gifts", view.ExpenseGroups[0].Total, "25")
}

func TestComputeLedgerView_Deterministic(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "0.1", "", "a", "2024-03-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "0.2", "", "b", "2024-03-01T10:00:00Z"),
		tx("t3", "L1", domain.Income, "0.3", "", "c", "2024-03-01T10:00:00Z"),
		tx("t4", "L1", domain.Expense, "0.7", "C2", "", "2024-03-01T10:00:00Z"),
	}
	m := month(t, "2024-03")

	first := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", m)
	second := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", m)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical views:\n%+v\n%+v", first, second)
	}
}

func TestComputeLedgerView_GroupTotalsMatchMonthTotals(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "0.1", "", "a", "2024-03-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "0.2", "", "b", "2024-03-02T10:00:00Z"),
		tx("t3", "L1", domain.Income, "0.3", "C1", "", "2024-03-03T10:00:00Z"),
		tx("t4", "L1", domain.Income, "bad", "", "x", "2024-03-04T10:00:00Z"),
		tx("t5", "L1", domain.Expense, "7", "", "old", "2024-02-04T10:00:00Z"),
		tx("t6", "L2", domain.Expense, "8", "", "other ledger", "2024-03-04T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))

	groupNet := decimal.Zero
	for _, g := range view.IncomeGroups {
		groupNet = groupNet.Add(g.Total)
	}
	for _, g := range view.ExpenseGroups {
		groupNet = groupNet.Sub(g.Total)
	}
	if !groupNet.Equal(view.MonthIncome.Sub(view.MonthExpense)) {
		t.Errorf("group net %s != month net %s", groupNet, view.MonthIncome.Sub(view.MonthExpense))
	}
	assertDecimal(t, "month expense", view.MonthExpense, "0.3")
}

func TestComputeLedgerView_PartitionCompleteness(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Income, "10", "", "a", "2023-12-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "nope", "", "b", "2024-01-02T10:00:00Z"),
		tx("t3", "L1", domain.Expense, "3", "", "c", "2024-03-03T10:00:00Z"),
		tx("t4", "L1", domain.Expense, "100", "", "d", "2024-05-03T10:00:00Z"),
	}

	view := aggregation.ComputeLedgerView(ledgers, txs, categories, nil, "Настя", month(t, "2024-03"))

	// t1 and t3 counted, t2 excluded as malformed, t4 outside the window.
	assertDecimal(t, "balance", view.CumulativeBalance, "7")
	if view.MalformedAmounts != 1 {
		t.Errorf("expected 1 malformed amount, got %d", view.MalformedAmounts)
	}
}

func TestComputeLedgerView_CreditItemsIgnoreMonth(t *testing.T) {
	due := at("2030-01-01T00:00:00Z")
	credits := []domain.CreditItem{
		{ID: "cr1", LedgerID: "L5", Name: "Mortgage", Kind: domain.CreditLoan, TotalDebt: decimal.NewFromInt(100000)},
		{ID: "cr2", LedgerID: "L5", Name: "Card", Kind: domain.CreditCard, TotalDebt: decimal.NewFromInt(5000), DueDate: &due},
		{ID: "cr3", LedgerID: "L1", Name: "Other", Kind: domain.CreditLoan},
	}

	view := aggregation.ComputeLedgerView(ledgers, nil, categories, credits, "Кредиты", month(t, "1999-01"))
	if len(view.CreditItems) != 2 {
		t.Fatalf("expected 2 credit items, got %d", len(view.CreditItems))
	}
	if view.CreditItems[0].ID != "cr1" || view.CreditItems[1].ID != "cr2" {
		t.Errorf("unexpected credit items: %+v", view.CreditItems)
	}
}

func TestComputeSnapshotView_AttachesDebts(t *testing.T) {
	snap := &domain.Snapshot{
		Ledgers:    ledgers,
		Categories: categories,
		Debts: []domain.Debt{
			{ID: "d1", LedgerID: "L1", Counterparty: "Глеб", Amount: decimal.NewFromInt(300)},
			{ID: "d2", LedgerID: "L2", Counterparty: "Настя", Amount: decimal.NewFromInt(10)},
		},
	}

	view := aggregation.ComputeSnapshotView(snap, "Настя", month(t, "2024-03"))
	if len(view.Debts) != 1 || view.Debts[0].ID != "d1" {
		t.Fatalf("expected debt d1 only, got %+v", view.Debts)
	}
	if aggregation.ComputeSnapshotView(snap, "Unknown", month(t, "2024-03")) != nil {
		t.Error("expected nil for unknown ledger")
	}
}
