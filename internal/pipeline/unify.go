package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/budgetlens/budgetlens/internal/model"
)

// Placeholder values for a parent synthesized around orphaned children.
const (
	OrphanMemo         = "Orphaned subtransaction(s)"
	OrphanCategoryName = "Unknown Category"
	SentinelDate       = "1970-01-01"
)

// UnifiedNode is a parent transaction and its children.
type UnifiedNode struct {
	Parent   model.Transaction
	Children []model.Transaction
	Orphan   bool
	// Err is set when a unit has no amount. Such nodes are rendered but
	// left out of analytics and month groups.
	Err error
}

// check records the first unit without an amount.
func (n *UnifiedNode) check() {
	for _, u := range n.units() {
		if err := u.ValidateAmount(); err != nil {
			n.Err = err
			return
		}
	}
}

// units returns the children when present, otherwise the parent.
func (n UnifiedNode) units() []model.Transaction {
	if len(n.Children) > 0 {
		return n.Children
	}
	return []model.Transaction{n.Parent}
}

// sortDate is the parent date, or the sentinel when it does not parse.
func (n UnifiedNode) sortDate() string {
	if _, err := model.ParseDate(n.Parent.Date); err != nil {
		return SentinelDate
	}
	return n.Parent.Date
}

// Tree is a unified transaction list, newest first.
type Tree []UnifiedNode

// Unify rebuilds parent/child structure from a flat feed. Children are found
// both through parent_transaction_id and nested subtransactions. Children
// whose parent is absent are attached to a placeholder so each one appears
// exactly once.
func Unify(items []model.Transaction) Tree {
	var parentOrder []string
	parents := make(map[string]model.Transaction)
	children := make(map[string][]model.Transaction)
	var childOrder []string
	seenChild := make(map[string]bool)

	addChild := func(parentID string, c model.Transaction) {
		if c.ID != "" && seenChild[c.ID] {
			return
		}
		if c.ID != "" {
			seenChild[c.ID] = true
		}
		if _, ok := children[parentID]; !ok {
			childOrder = append(childOrder, parentID)
		}
		children[parentID] = append(children[parentID], c)
	}

	for _, it := range items {
		if it.Type == model.TypeSubtransaction || it.ParentTransactionID != "" {
			addChild(it.ParentTransactionID, it)
			continue
		}
		if _, dup := parents[it.ID]; !dup {
			parentOrder = append(parentOrder, it.ID)
		}
		parents[it.ID] = it
	}

	for _, id := range parentOrder {
		p := parents[id]
		for _, sub := range p.Subtransactions {
			if sub.Date == "" {
				sub.Date = p.Date
			}
			if sub.ParentTransactionID == "" {
				sub.ParentTransactionID = p.ID
			}
			addChild(p.ID, sub)
		}
	}

	tree := make(Tree, 0, len(parentOrder)+len(childOrder))
	for _, id := range parentOrder {
		p := parents[id]
		p.Subtransactions = nil
		n := UnifiedNode{Parent: p, Children: children[id]}
		n.check()
		tree = append(tree, n)
	}
	for _, id := range childOrder {
		if _, ok := parents[id]; ok {
			continue
		}
		kids := children[id]
		date := kids[0].Date
		if _, err := model.ParseDate(date); err != nil {
			date = SentinelDate
		}
		n := UnifiedNode{
			Parent: model.Transaction{
				ID:           id,
				Date:         date,
				Memo:         OrphanMemo,
				CategoryName: OrphanCategoryName,
				PayeeName:    kids[0].PayeeName,
				AccountName:  kids[0].AccountName,
			},
			Children: kids,
			Orphan:   true,
		}
		n.check()
		tree = append(tree, n)
	}

	sort.SliceStable(tree, func(i, j int) bool {
		return tree[i].sortDate() > tree[j].sortDate()
	})
	return tree
}

// Skipped lists the nodes left out of analytics, by parent id.
func (t Tree) Skipped() []model.Skip {
	var out []model.Skip
	for _, n := range t {
		if n.Err != nil {
			out = append(out, model.Skip{ID: n.Parent.ID, Err: n.Err})
		}
	}
	return out
}

// Transactions renders the tree in major units. Every parent carries a
// non-nil children list.
func (t Tree) Transactions() []model.UnifiedTransaction {
	out := make([]model.UnifiedTransaction, 0, len(t))
	for _, n := range t {
		u := unified(n.Parent)
		u.Orphan = n.Orphan
		u.Subtransactions = make([]model.UnifiedTransaction, 0, len(n.Children))
		for _, c := range n.Children {
			cu := unified(c)
			cu.Subtransactions = []model.UnifiedTransaction{}
			u.Subtransactions = append(u.Subtransactions, cu)
		}
		out = append(out, u)
	}
	return out
}

func unified(t model.Transaction) model.UnifiedTransaction {
	return model.UnifiedTransaction{
		ID:                    t.ID,
		Date:                  t.Date,
		Amount:                Round2(Major(t.Amount)),
		Memo:                  t.Memo,
		PayeeName:             t.PayeeName,
		CategoryName:          t.CategoryName,
		AccountName:           t.AccountName,
		TransferTransactionID: t.TransferTransactionID,
	}
}

type flow struct {
	spent    decimal.Decimal
	received decimal.Decimal
}

// Analyze totals spending and receipts over the tree, counting children in
// place of their parent, with a per-category breakdown.
func (t Tree) Analyze() model.PayeeAnalytics {
	var total flow
	byCategory := make(map[string]*flow)

	for _, n := range t {
		if n.Err != nil {
			continue
		}
		for _, u := range n.units() {
			in, out := Split(u.Amount)
			name := orDefault(u.CategoryName, UncategorizedName)
			f, ok := byCategory[name]
			if !ok {
				f = &flow{}
				byCategory[name] = f
			}
			f.spent = f.spent.Add(out)
			f.received = f.received.Add(in)
			total.spent = total.spent.Add(out)
			total.received = total.received.Add(in)
		}
	}

	breakdown := make(map[string]model.CategoryFlow, len(byCategory))
	for name, f := range byCategory {
		breakdown[name] = model.CategoryFlow{Spent: Round2(f.spent), Received: Round2(f.received)}
	}
	return model.PayeeAnalytics{
		TotalSpent:        Round2(total.spent),
		TotalReceived:     Round2(total.received),
		CategoryBreakdown: breakdown,
	}
}

// GroupByMonth totals the tree per calendar month, newest first. Transfer
// units count toward transfers only. Nodes with unparseable dates are grouped
// under the sentinel month.
func (t Tree) GroupByMonth() []model.MonthGroup {
	type acc struct {
		totals    Totals
		transfers decimal.Decimal
		count     int
	}
	var order []string
	groups := make(map[string]*acc)

	for _, n := range t {
		if n.Err != nil {
			continue
		}
		key := n.sortDate()[:7]
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		for _, u := range n.units() {
			if u.IsTransfer() {
				g.transfers = g.transfers.Add(Major(u.Amount).Abs())
				continue
			}
			g.totals.Add(u.Amount)
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i] > order[j] })
	out := make([]model.MonthGroup, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, model.MonthGroup{
			Month:     key,
			Income:    Round2(g.totals.Income),
			Expense:   Round2(g.totals.Expense),
			Transfers: Round2(g.transfers),
			Count:     g.count,
		})
	}
	return out
}

// Report bundles the rendered tree, its analytics and month groups.
// Malformed nodes appear only in the rendered tree and in Skipped.
func (t Tree) Report() model.UnifiedReport {
	return model.UnifiedReport{
		Transactions: t.Transactions(),
		Analytics:    t.Analyze(),
		Months:       t.GroupByMonth(),
		Skipped:      t.Skipped(),
	}
}
