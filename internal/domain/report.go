// internal/domain/report.go
package domain

import "github.com/shopspring/decimal"

// Chart colors per category.
const (
	ColorChecking = "#36A2EB"
	ColorSavings  = "#4BC0C0"
	ColorBusiness = "#FFCE56"
	ColorCrypto   = "#FF6384"
	ColorPending  = "#CCCCCC"

	LabelCrypto  = "Crypto"
	LabelPending = "Pending Crypto Orders"
)

// ColorFor returns the chart color of an account type.
func ColorFor(t AccountType) string {
	switch t {
	case AccountTypeChecking:
		return ColorChecking
	case AccountTypeSavings:
		return ColorSavings
	case AccountTypeBusiness:
		return ColorBusiness
	}
	return ColorPending
}

// Series is one line of the balance history chart.
type Series struct {
	Label  string            `json:"label"`
	Color  string            `json:"color"`
	Values []decimal.Decimal `json:"values"`
}

// TimeSeries is the balance history chart.
type TimeSeries struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// DistributionSlice is one bucket of the current balance distribution.
type DistributionSlice struct {
	Label string          `json:"label"`
	Color string          `json:"color"`
	Value decimal.Decimal `json:"value"`
}

// Dashboard is the read-only reporting view of one user.
type Dashboard struct {
	Range         TimeRange                       `json:"range"`
	Accounts      []BankAccount                   `json:"accounts"`
	AccountTotals map[AccountType]decimal.Decimal `json:"account_totals"`
	CryptoBalance decimal.Decimal                 `json:"crypto_balance"`
	PendingOrders decimal.Decimal                 `json:"pending_orders"`
	TotalBalance  decimal.Decimal                 `json:"total_balance"`
	TimeSeries    TimeSeries                      `json:"time_series"`
	Distribution  []DistributionSlice             `json:"distribution"`
}
