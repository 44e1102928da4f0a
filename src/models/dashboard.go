package models

type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DashboardStats struct {
	TotalBalance       float64             `json:"totalBalance"`
	MonthlyIncome      float64             `json:"monthlyIncome"`
	MonthlyExpenses    float64             `json:"monthlyExpenses"`
	TransactionCount   int                 `json:"transactionCount"`
	MonthlyGrowth      float64             `json:"monthlyGrowth"`
	CategoryBreakdown  []CategoryBreakdown `json:"categoryBreakdown"`
	RecentTransactions []Transaction       `json:"recentTransactions"`
}

type MonthlyChartPoint struct {
	Month    string  `json:"month"`
	Year     int     `json:"year"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}
