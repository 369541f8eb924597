package aggregation_test

import (
	"reflect"
	"testing"

	"github.com/pnlfinance/family-finance/internal/aggregation"
	"github.com/pnlfinance/family-finance/internal/domain"
)

func TestGroupMembers(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "L1", domain.Expense, "10", "C2", "milk", "2024-03-01T10:00:00Z"),
		tx("t2", "L1", domain.Expense, "20", "", " Taxi", "2024-03-02T10:00:00Z"),
		tx("t3", "L1", domain.Expense, "30", "gone", "Taxi", "2024-03-03T10:00:00Z"),
		tx("t4", "L1", domain.Income, "40", "", "Taxi", "2024-03-04T10:00:00Z"),
		tx("t5", "L1", domain.Expense, "50", "", "Taxi", "2024-02-04T10:00:00Z"),
		tx("t6", "L2", domain.Expense, "60", "", "Taxi", "2024-03-04T10:00:00Z"),
		tx("t7", "L1", domain.Expense, "5", "", "", "2024-03-05T10:00:00Z"),
	}
	m := month(t, "2024-03")

	tests := []struct {
		name string
		sel  domain.GroupSelector
		want []string
	}{
		{"comment group", domain.GroupSelector{Kind: domain.Expense, Name: "Taxi"}, []string{"t2", "t3"}},
		{"category group", domain.GroupSelector{Kind: domain.Expense, CategoryID: "C2"}, []string{"t1"}},
		{"other kind", domain.GroupSelector{Kind: domain.Income, Name: "Taxi"}, []string{"t4"}},
		{"uncategorized", domain.GroupSelector{Kind: domain.Expense, Name: aggregation.UncategorizedLabel}, []string{"t7"}},
		{"no match", domain.GroupSelector{Kind: domain.Expense, Name: "Cinema"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregation.GroupMembers(txs, categories, "L1", m, tt.sel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
