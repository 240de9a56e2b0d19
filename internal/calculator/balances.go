// Package calculator derives group balance summaries from expenses. It is
// pure in-memory logic; stores load the expenses, this package nets them.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hearthkeep/hearthkeep/internal/models"
)

// MemberBalance is the balance summary for one group member.
type MemberBalance struct {
	Username   string  `json:"username"`
	NetBalance float64 `json:"netBalance"` // positive = owed money, negative = owes money
	TotalPaid  float64 `json:"totalPaid"`
	TotalOwed  float64 `json:"totalOwed"`
}

// DebtEdge is an outstanding debt from one member to another.
type DebtEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Balances below this are treated as settled when building debt edges,
// absorbing float noise from shares like 10/3.
var settleThreshold = decimal.NewFromFloat(0.01)

type memberTotals struct {
	paid decimal.Decimal
	owed decimal.Decimal
}

// CalculateGroupBalances nets a group's expenses into per-member balances
// and a debt edge list.
//
// For each expense the payer is credited the full amount and every
// participant owes an equal share. A settled settlement entry counts as
// the share having been paid back: the participant is credited it and the
// payer charged it, cancelling that debt. Sums are carried in decimals so
// that many small float shares do not drift; only the final figures are
// converted back to float64 for the wire.
func CalculateGroupBalances(expenses []*models.Expense) ([]MemberBalance, []DebtEdge) {
	totals := make(map[string]*memberTotals)
	member := func(name string) *memberTotals {
		t, ok := totals[name]
		if !ok {
			t = &memberTotals{}
			totals[name] = t
		}
		return t
	}

	for _, e := range expenses {
		// An expense without a payer or participants cannot be attributed;
		// constructors reject these, but loaded documents get no such
		// guarantee.
		if e.PaidBy == "" || len(e.Participants) == 0 {
			continue
		}

		amount := decimal.NewFromFloat(e.Amount)
		share := amount.Div(decimal.NewFromInt(int64(len(e.Participants))))

		member(e.PaidBy).paid = member(e.PaidBy).paid.Add(amount)
		for _, p := range e.Participants {
			member(p).owed = member(p).owed.Add(share)
		}

		for _, s := range e.Settlements {
			if !s.IsSettled {
				continue
			}
			member(s.Username).paid = member(s.Username).paid.Add(share)
			member(e.PaidBy).owed = member(e.PaidBy).owed.Add(share)
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	balances := make([]MemberBalance, 0, len(names))
	net := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		t := totals[name]
		n := t.paid.Sub(t.owed)
		net[name] = n
		balances = append(balances, MemberBalance{
			Username:   name,
			NetBalance: n.InexactFloat64(),
			TotalPaid:  t.paid.InexactFloat64(),
			TotalOwed:  t.owed.InexactFloat64(),
		})
	}

	return balances, debtEdges(names, net)
}

// debtEdges greedily matches debtors against creditors so each member
// appears in as few transfers as possible.
func debtEdges(names []string, net map[string]decimal.Decimal) []DebtEdge {
	var debtors, creditors []string
	owes := make(map[string]decimal.Decimal)
	owed := make(map[string]decimal.Decimal)
	for _, name := range names {
		n := net[name]
		switch {
		case n.LessThan(settleThreshold.Neg()):
			debtors = append(debtors, name)
			owes[name] = n.Neg()
		case n.GreaterThan(settleThreshold):
			creditors = append(creditors, name)
			owed[name] = n
		}
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		amount := owes[debtor]
		if owed[creditor].LessThan(amount) {
			amount = owed[creditor]
		}
		if amount.GreaterThan(settleThreshold) {
			edges = append(edges, DebtEdge{
				From:   debtor,
				To:     creditor,
				Amount: amount.InexactFloat64(),
			})
		}

		owes[debtor] = owes[debtor].Sub(amount)
		owed[creditor] = owed[creditor].Sub(amount)
		if owes[debtor].LessThanOrEqual(settleThreshold) {
			i++
		}
		if owed[creditor].LessThanOrEqual(settleThreshold) {
			j++
		}
	}
	return edges
}
