package core

import (
	"sort"
	"time"
)

const (
	// RecentPerKind is how many of the newest records of each kind the
	// dashboard shows.
	RecentPerKind = 5
	// RecentFeedSize bounds the merged recent-activity feed.
	RecentFeedSize = 10
)

// NamedValue is a chart-ready group total.
type NamedValue struct {
	Name  string `json:"name"`
	Value Money  `json:"value"`
}

// MonthTotal is one point of a yearly series.
type MonthTotal struct {
	Month int    `json:"month"` // 1-12
	Label string `json:"label"`
	Total Money  `json:"total"`
}

// FeedItem is one line of the merged recent-activity feed.
type FeedItem struct {
	ID       string `json:"id"`
	Type     Kind   `json:"type"`
	Amount   Amount `json:"amount"`
	Source   string `json:"source"`
	Category string `json:"category,omitempty"`
	Date     Date   `json:"date"`
}

// Dashboard is the per-owner snapshot combining both collections.
type Dashboard struct {
	TotalIncome        Money      `json:"totalIncome"`
	TotalExpense       Money      `json:"totalExpense"`
	Balance            Money      `json:"balance"`
	RecentIncomes      []Entry    `json:"recentIncomes"`
	RecentExpenses     []Entry    `json:"recentExpenses"`
	RecentTransactions []FeedItem `json:"recentTransactions"`
}

// Period selects a month and/or year. A zero field leaves that part
// unconstrained.
type Period struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"` // 1-12
}

// KindSummary is the breakdown shown by a per-kind listing view.
type KindSummary struct {
	Kind    Kind           `json:"kind"`
	Period  Period         `json:"period"`
	Total   Money          `json:"total"`
	Groups  []NamedValue   `json:"groups"`
	Monthly [12]MonthTotal `json:"monthly"`
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	if d.IsZero() {
		return p.Year == 0 && p.Month == 0
	}
	if p.Year != 0 && d.Year() != p.Year {
		return false
	}
	if p.Month != 0 && d.Month() != p.Month {
		return false
	}
	return true
}

// OrCurrent fills missing fields from now.
func (p Period) OrCurrent(now time.Time) Period {
	if p.Year == 0 {
		p.Year = now.Year()
	}
	if p.Month == 0 {
		p.Month = int(now.Month())
	}
	return p
}

// SumAmounts adds every valid amount. Invalid amounts contribute zero.
func SumAmounts(entries []Entry) Money {
	var total Money
	for _, e := range entries {
		total = total.Add(e.Amount.Money())
	}
	return total
}

// BuildDashboard aggregates two lists that are already ordered newest-created
// first. It does no I/O.
func BuildDashboard(incomes, expenses []Entry) Dashboard {
	totalIncome := SumAmounts(incomes)
	totalExpense := SumAmounts(expenses)

	recentIncomes := head(incomes, RecentPerKind)
	recentExpenses := head(expenses, RecentPerKind)

	return Dashboard{
		TotalIncome:        totalIncome,
		TotalExpense:       totalExpense,
		Balance:            totalIncome.Sub(totalExpense),
		RecentIncomes:      recentIncomes,
		RecentExpenses:     recentExpenses,
		RecentTransactions: RecentFeed(recentIncomes, recentExpenses, RecentFeedSize),
	}
}

// RecentFeed merges incomes then expenses, orders them by transaction date
// (newest first, stable for equal dates) and keeps at most limit items.
func RecentFeed(incomes, expenses []Entry, limit int) []FeedItem {
	feed := make([]FeedItem, 0, len(incomes)+len(expenses))
	for _, e := range incomes {
		feed = append(feed, feedItem(Income, e))
	}
	for _, e := range expenses {
		feed = append(feed, feedItem(Expense, e))
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Date.After(feed[j].Date.Time)
	})
	if limit >= 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

func feedItem(kind Kind, e Entry) FeedItem {
	return FeedItem{
		ID:       e.ID,
		Type:     kind,
		Amount:   e.Amount,
		Source:   e.Source,
		Category: e.Category,
		Date:     e.Date,
	}
}

// GroupTotals sums the entries dated in year+month by category (expenses) or
// source (incomes). Groups keep the order in which they first appear.
func GroupTotals(kind Kind, entries []Entry, year, month int) []NamedValue {
	period := Period{Year: year, Month: month}
	groups := []NamedValue{}
	index := map[string]int{}
	for _, e := range entries {
		if !period.Contains(e.Date) {
			continue
		}
		e.Kind = kind
		name := e.GroupName()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, NamedValue{Name: name})
		}
		groups[i].Value = groups[i].Value.Add(e.Amount.Money())
	}
	return groups
}

// MonthlySeries returns one total per calendar month of year. Months without
// entries are present with a zero total.
func MonthlySeries(entries []Entry, year int) [12]MonthTotal {
	var series [12]MonthTotal
	for i := range series {
		series[i] = MonthTotal{Month: i + 1, Label: time.Month(i + 1).String()}
	}
	for _, e := range entries {
		if e.Date.IsZero() || e.Date.Year() != year {
			continue
		}
		m := e.Date.Month() - 1
		series[m].Total = series[m].Total.Add(e.Amount.Money())
	}
	return series
}

// FilterEntries keeps the entries inside the period.
func FilterEntries(entries []Entry, p Period) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDateDesc orders entries by transaction date, newest first. Equal
// dates keep their relative order.
func SortByDateDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date.Time)
	})
}

// Summarize builds the listing breakdown for one kind. period must be fully
// specified; use Period.OrCurrent for defaults.
func Summarize(kind Kind, entries []Entry, period Period) KindSummary {
	return KindSummary{
		Kind:    kind,
		Period:  period,
		Total:   SumAmounts(FilterEntries(entries, period)),
		Groups:  GroupTotals(kind, entries, period.Year, period.Month),
		Monthly: MonthlySeries(entries, period.Year),
	}
}

func head(entries []Entry, n int) []Entry {
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
