package ynab

import "github.com/budgetlens/budgetlens/internal/model"

// envelope is the {"data": ...} wrapper around every success response.
type envelope struct {
	Data any `json:"data"`
}

// errorBody is the {"error": ...} wrapper around failures.
type errorBody struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

type userData struct {
	User model.User `json:"user"`
}

type budgetsData struct {
	Budgets []model.BudgetSummary `json:"budgets"`
}

type accountsData struct {
	Accounts        []model.Account `json:"accounts"`
	ServerKnowledge int64           `json:"server_knowledge"`
}

type categoriesData struct {
	CategoryGroups  []model.CategoryGroup `json:"category_groups"`
	ServerKnowledge int64                 `json:"server_knowledge"`
}

type payeesData struct {
	Payees          []model.Payee `json:"payees"`
	ServerKnowledge int64         `json:"server_knowledge"`
}

type monthsData struct {
	Months          []model.MonthDetail `json:"months"`
	ServerKnowledge int64               `json:"server_knowledge"`
}

type transactionsData struct {
	Transactions    []model.Transaction `json:"transactions"`
	ServerKnowledge int64               `json:"server_knowledge"`
}

type scheduledData struct {
	ScheduledTransactions []model.ScheduledTransaction `json:"scheduled_transactions"`
	ServerKnowledge       int64                        `json:"server_knowledge"`
}
