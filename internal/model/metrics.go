package model

// SummaryStats holds period totals across categorized transactions.
type SummaryStats struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Transactions int     `json:"transactions"`
	Skipped      int     `json:"skipped"`
	ActiveDays   int     `json:"active_days"`
	Income       float64 `json:"income"`
	Expense      float64 `json:"expense"`
	Net          float64 `json:"net"`
	SavingsRate  float64 `json:"savings_rate"`

	Categories []EntityActivity `json:"categories"`
	Payees     []EntityActivity `json:"payees"`
	Accounts   []EntityActivity `json:"accounts"`
}

// ChartPoint holds income and expense for one calendar bucket.
type ChartPoint struct {
	Date    string  `json:"date"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// EntityActivity is the income/expense of one category, payee or account.
type EntityActivity struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Note       *string `json:"note,omitempty"`
	SumIncome  float64 `json:"sum_income"`
	SumExpense float64 `json:"sum_expense"`
}

// DailySummary holds totals and the active entities of one day.
type DailySummary struct {
	Date             string           `json:"date"`
	SumIncome        float64          `json:"sum_income"`
	SumExpenses      float64          `json:"sum_expenses"`
	NetValue         float64          `json:"net_value"`
	ActiveCategories []EntityActivity `json:"active_categories"`
	ActivePayees     []EntityActivity `json:"active_payees"`
	ActiveAccounts   []EntityActivity `json:"active_accounts"`
}

// MonthlyChart is the chart payload for one calendar month.
type MonthlyChart struct {
	ChartData    []ChartPoint   `json:"chart_data"`
	DailySummary []DailySummary `json:"daily_summary"`
	Transactions []Transaction  `json:"transactions"`
	Skipped      []Skip         `json:"-"`
}

// PieSlice is one ranked payee.
type PieSlice struct {
	Payee    string  `json:"payee"`
	Activity float64 `json:"activity"`
}

// MonthlySpending is the net spending of one month.
type MonthlySpending struct {
	Month    string  `json:"month"`
	Spending float64 `json:"spending"`
}

// CategoryReport is the category drill-down payload.
type CategoryReport struct {
	PayeeChartData   []PieSlice        `json:"payeeChartData"`
	Legend           []string          `json:"legend"`
	MonthlyChartData []MonthlySpending `json:"monthlyChartData"`
	Transactions     []Transaction     `json:"transactions"`
	Skipped          []Skip            `json:"-"`
}

// Scheduled entry statuses.
const (
	StatusToBePaid = "To Be Paid"
	StatusPaid     = "Paid"
)

// ScheduledOverview summarizes scheduled payments for the current month.
type ScheduledOverview struct {
	Month            string  `json:"month"`
	TotalScheduled   float64 `json:"totalScheduled"`
	TotalPaid        float64 `json:"totalPaid"`
	ToBePaid         float64 `json:"toBePaid"`
	RemainingBalance float64 `json:"remainingBalance"`
	PercentagePaid   float64 `json:"percentagePaid"`
}

// ScheduledEntry is a scheduled transaction after reconciliation.
type ScheduledEntry struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Memo         string  `json:"memo"`
	CategoryName string  `json:"category_name"`
	PayeeName    string  `json:"payee_name"`
	AccountName  string  `json:"account_name"`
	AccountNote  string  `json:"account_note"`
	AccountType  string  `json:"account_type"`
	Status       string  `json:"status"`
}

// ScheduledReport is the reconciliation payload.
type ScheduledReport struct {
	Overview              ScheduledOverview `json:"overview"`
	ScheduledTransactions []ScheduledEntry  `json:"scheduledTransactions"`
	Unmatched             []string          `json:"-"`
}

// UnifiedTransaction is a parent transaction with its children attached.
type UnifiedTransaction struct {
	ID                    string               `json:"id"`
	Date                  string               `json:"date"`
	Amount                float64              `json:"amount"`
	Memo                  string               `json:"memo"`
	PayeeName             string               `json:"payee_name"`
	CategoryName          string               `json:"category_name"`
	AccountName           string               `json:"account_name,omitempty"`
	TransferTransactionID string               `json:"transfer_transaction_id,omitempty"`
	Subtransactions       []UnifiedTransaction `json:"subtransactions"`
	Orphan                bool                 `json:"orphan,omitempty"`
}

// CategoryFlow is the spent/received pair of one category.
type CategoryFlow struct {
	Spent    float64 `json:"spent"`
	Received float64 `json:"received"`
}

// PayeeAnalytics totals a unified transaction list.
type PayeeAnalytics struct {
	TotalSpent        float64                 `json:"totalSpent"`
	TotalReceived     float64                 `json:"totalReceived"`
	CategoryBreakdown map[string]CategoryFlow `json:"categoryBreakdown"`
}

// MonthGroup totals unified transactions of one month.
type MonthGroup struct {
	Month     string  `json:"month"`
	Income    float64 `json:"income"`
	Expense   float64 `json:"expense"`
	Transfers float64 `json:"transfers"`
	Count     int     `json:"count"`
}

// UnifiedReport is the payee or account drill-down payload.
type UnifiedReport struct {
	Transactions []UnifiedTransaction `json:"transactions"`
	Analytics    PayeeAnalytics       `json:"analytics"`
	Months       []MonthGroup         `json:"months"`
	Skipped      []Skip               `json:"-"`
}

// AgeOfMoneyPoint is the age of money at the end of one month.
type AgeOfMoneyPoint struct {
	Month      string `json:"month"`
	AgeOfMoney *int   `json:"age_of_money"`
}

// Trend directions.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// AgeOfMoneyReport is the age of money chart plus the latest month-over-month trend.
type AgeOfMoneyReport struct {
	ChartData         []AgeOfMoneyPoint `json:"chart_data"`
	CurrentAgeOfMoney *int              `json:"current_age_of_money"`
	TrendPercentage   *float64          `json:"trend_percentage"`
	TrendDirection    *string           `json:"trend_direction"`
}

// TrendPoint is one bucket of an income/expense series with its net.
type TrendPoint struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}
