package model

// BudgetSummary describes one budget the token can read.
type BudgetSummary struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	LastModifiedOn string         `json:"last_modified_on,omitempty"`
	FirstMonth     string         `json:"first_month,omitempty"`
	LastMonth      string         `json:"last_month,omitempty"`
	CurrencyFormat CurrencyFormat `json:"currency_format"`
}

// CurrencyFormat is the display format of a budget's single currency.
type CurrencyFormat struct {
	ISOCode          string `json:"iso_code"`
	ExampleFormat    string `json:"example_format,omitempty"`
	DecimalDigits    int    `json:"decimal_digits"`
	DecimalSeparator string `json:"decimal_separator,omitempty"`
	SymbolFirst      bool   `json:"symbol_first"`
	GroupSeparator   string `json:"group_separator,omitempty"`
	CurrencySymbol   string `json:"currency_symbol,omitempty"`
	DisplaySymbol    bool   `json:"display_symbol"`
}

// Account is a budget account. Only name, note and type are used to decorate
// transactions; balances are passed through.
type Account struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	OnBudget         bool   `json:"on_budget"`
	Closed           bool   `json:"closed"`
	Note             string `json:"note,omitempty"`
	Balance          int64  `json:"balance"`
	ClearedBalance   int64  `json:"cleared_balance"`
	UnclearedBalance int64  `json:"uncleared_balance"`
	TransferPayeeID  string `json:"transfer_payee_id,omitempty"`
	Deleted          bool   `json:"deleted,omitempty"`
}

// CategoryGroup holds the categories of one group.
type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories"`
}

// Category is a budget category with its month figures in milliunits.
type Category struct {
	ID              string `json:"id"`
	CategoryGroupID string `json:"category_group_id"`
	Name            string `json:"name"`
	Hidden          bool   `json:"hidden"`
	Note            string `json:"note,omitempty"`
	Budgeted        int64  `json:"budgeted"`
	Activity        int64  `json:"activity"`
	Balance         int64  `json:"balance"`
	GoalType        string `json:"goal_type,omitempty"`
	Deleted         bool   `json:"deleted"`
}

// Payee is a budget payee.
type Payee struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
	Deleted           bool   `json:"deleted"`
}

// MonthDetail is one budget month. AgeOfMoney is nil when the upstream has
// not computed it yet.
type MonthDetail struct {
	Month        string `json:"month"`
	Note         string `json:"note,omitempty"`
	Income       int64  `json:"income"`
	Budgeted     int64  `json:"budgeted"`
	Activity     int64  `json:"activity"`
	ToBeBudgeted int64  `json:"to_be_budgeted"`
	AgeOfMoney   *int   `json:"age_of_money"`
	Deleted      bool   `json:"deleted"`
}

// User is the owner of the token.
type User struct {
	ID string `json:"id"`
}
