package core

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(kind Kind, id string, amount float64, group string, date Date) Entry {
	p := Payload{Amount: NewAmount(amount), Source: group, Date: date}
	if kind == Expense {
		p.Category = group
		p.Source = "shop"
	}
	return Entry{ID: id, Kind: kind, Payload: p}
}

func TestBuildDashboardTotals(t *testing.T) {
	incomes := []Entry{entry(Income, "i1", 100, "Job", NewDate(2024, 1, 5)), entry(Income, "i2", 200, "Gift", NewDate(2024, 1, 9))}
	expenses := []Entry{entry(Expense, "e1", 50, "Food", NewDate(2024, 1, 7))}

	d := BuildDashboard(incomes, expenses)

	assert.Equal(t, int64(30000), d.TotalIncome.Cents)
	assert.Equal(t, int64(5000), d.TotalExpense.Cents)
	assert.Equal(t, int64(25000), d.Balance.Cents)
	require.Len(t, d.RecentTransactions, 3)
	assert.Equal(t, []string{"i2", "e1", "i1"}, feedIDs(d.RecentTransactions))
	assert.Equal(t, Expense, d.RecentTransactions[1].Type)
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(nil, nil)
	assert.Zero(t, d.Balance.Cents)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalIncome":0,"totalExpense":0,"balance":0,"recentIncomes":[],"recentExpenses":[],"recentTransactions":[]}`, string(out))
}

func TestBuildDashboardRecentLimits(t *testing.T) {
	var incomes, expenses []Entry
	for i := 0; i < 7; i++ {
		incomes = append(incomes, entry(Income, fmt.Sprintf("i%d", i), 1, "Job", NewDate(2024, 1, 20-i)))
		expenses = append(expenses, entry(Expense, fmt.Sprintf("e%d", i), 1, "Food", NewDate(2024, 2, 20-i)))
	}

	d := BuildDashboard(incomes, expenses)

	assert.Len(t, d.RecentIncomes, RecentPerKind)
	assert.Len(t, d.RecentExpenses, RecentPerKind)
	assert.Equal(t, "i0", d.RecentIncomes[0].ID)
	require.Len(t, d.RecentTransactions, RecentFeedSize)
	assert.Equal(t, []string{"e0", "e1", "e2", "e3", "e4", "i0", "i1", "i2", "i3", "i4"}, feedIDs(d.RecentTransactions))
	assert.Equal(t, int64(1400), d.TotalIncome.Cents+d.TotalExpense.Cents)
}

func TestBuildDashboardToleratesBadAmounts(t *testing.T) {
	var bad Amount
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &bad))
	incomes := []Entry{
		entry(Income, "i1", 10, "Job", NewDate(2024, 1, 1)),
		{ID: "i2", Kind: Income, Payload: Payload{Amount: bad, Source: "Job", Date: NewDate(2024, 1, 2)}},
		{ID: "i3", Kind: Income, Payload: Payload{Source: "Job", Date: NewDate(2024, 1, 3)}},
	}

	d := BuildDashboard(incomes, nil)

	assert.Equal(t, int64(1000), d.TotalIncome.Cents)
	assert.Len(t, d.RecentTransactions, 3)
}

func TestRecentFeedStableForEqualDates(t *testing.T) {
	day := NewDate(2024, 4, 1)
	incomes := []Entry{entry(Income, "i1", 1, "a", day), entry(Income, "i2", 1, "b", day)}
	expenses := []Entry{entry(Expense, "e1", 1, "c", day)}

	feed := RecentFeed(incomes, expenses, 10)

	assert.Equal(t, []string{"i1", "i2", "e1"}, feedIDs(feed))
}

func TestGroupTotals(t *testing.T) {
	entries := []Entry{
		entry(Expense, "1", 10, "Food", NewDate(2024, 3, 1)),
		entry(Expense, "2", 5.5, "Rent", NewDate(2024, 3, 2)),
		entry(Expense, "3", 2.25, "Food", NewDate(2024, 3, 30)),
		entry(Expense, "4", 99, "Food", NewDate(2024, 4, 1)),
		entry(Expense, "5", 99, "Food", NewDate(2023, 3, 1)),
	}

	got := GroupTotals(Expense, entries, 2024, 3)

	assert.Equal(t, []NamedValue{
		{Name: "Food", Value: Money{Cents: 1225}},
		{Name: "Rent", Value: Money{Cents: 550}},
	}, got)

	assert.Empty(t, GroupTotals(Expense, entries, 2022, 1))
	assert.NotNil(t, GroupTotals(Expense, nil, 2022, 1))
}

func TestGroupTotalsIncomeUsesSource(t *testing.T) {
	entries := []Entry{
		entry(Income, "1", 1000, "Salary", NewDate(2024, 6, 1)),
		entry(Income, "2", 50, "Gift", NewDate(2024, 6, 2)),
	}

	got := GroupTotals(Income, entries, 2024, 6)

	require.Len(t, got, 2)
	assert.Equal(t, "Salary", got[0].Name)
	assert.Equal(t, "Gift", got[1].Name)
}

func TestMonthlySeries(t *testing.T) {
	entries := []Entry{
		entry(Income, "1", 100, "Job", NewDate(2024, 1, 10)),
		entry(Income, "2", 20, "Job", NewDate(2024, 1, 11)),
		entry(Income, "3", 7, "Job", NewDate(2024, 12, 31)),
		entry(Income, "4", 1000, "Job", NewDate(2023, 2, 1)),
	}

	series := MonthlySeries(entries, 2024)

	assert.Equal(t, "January", series[0].Label)
	assert.Equal(t, 1, series[0].Month)
	assert.Equal(t, int64(12000), series[0].Total.Cents)
	assert.Zero(t, series[1].Total.Cents)
	assert.Zero(t, series[2].Total.Cents, "March has no entries")
	assert.Equal(t, int64(700), series[11].Total.Cents)
	assert.Equal(t, "December", series[11].Label)
}

func TestFilterEntries(t *testing.T) {
	entries := []Entry{
		entry(Income, "1", 1, "a", NewDate(2024, 1, 10)),
		entry(Income, "2", 1, "a", NewDate(2024, 2, 10)),
		entry(Income, "3", 1, "a", NewDate(2023, 1, 10)),
		{ID: "4", Kind: Income},
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, entryIDs(FilterEntries(entries, Period{})))
	assert.Equal(t, []string{"1", "2"}, entryIDs(FilterEntries(entries, Period{Year: 2024})))
	assert.Equal(t, []string{"1", "3"}, entryIDs(FilterEntries(entries, Period{Month: 1})))
	assert.Equal(t, []string{"1"}, entryIDs(FilterEntries(entries, Period{Year: 2024, Month: 1})))
	assert.Empty(t, FilterEntries(entries, Period{Year: 2020}))
}

func TestSortByDateDesc(t *testing.T) {
	entries := []Entry{
		entry(Income, "old", 1, "a", NewDate(2023, 1, 1)),
		entry(Income, "new", 1, "a", NewDate(2024, 1, 1)),
		entry(Income, "new2", 1, "a", NewDate(2024, 1, 1)),
	}

	SortByDateDesc(entries)

	assert.Equal(t, []string{"new", "new2", "old"}, entryIDs(entries))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		entry(Expense, "1", 10, "Food", NewDate(2024, 3, 1)),
		entry(Expense, "2", 30, "Fun", NewDate(2024, 2, 1)),
	}

	s := Summarize(Expense, entries, Period{}.OrCurrent(now))

	assert.Equal(t, Period{Year: 2024, Month: 3}, s.Period)
	assert.Equal(t, int64(1000), s.Total.Cents)
	assert.Len(t, s.Groups, 1)
	assert.Equal(t, int64(3000), s.Monthly[1].Total.Cents)
}

func feedIDs(feed []FeedItem) []string {
	ids := make([]string, len(feed))
	for i, f := range feed {
		ids[i] = f.ID
	}
	return ids
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
