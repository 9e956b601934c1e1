package portfolio

// Domain context keys as seen by tools.
const (
	KeyHoldings     = "holdings"
	KeyCashAccounts = "cash_accounts"
	KeyCashBalances = "cash_balances"
	KeyFundMetadata = "fund_metadata"
	KeyAccounts     = "accounts"
	KeyTransactions = "transactions"
	KeyLatestPrices = "latest_prices"
)

// Snapshot is the read-only portfolio view shared by every tool call in a
// turn. Callers must not mutate the slices it hands out.
type Snapshot struct {
	holdings     []Holding
	cash         []CashBalance
	accounts     []Account
	funds        []Fund
	transactions []Transaction
	latestPrices map[string]float64
}

func NewSnapshot(
	holdings []Holding,
	cash []CashBalance,
	accounts []Account,
	funds []Fund,
	transactions []Transaction,
) *Snapshot {
	return &Snapshot{
		holdings:     holdings,
		cash:         cash,
		accounts:     accounts,
		funds:        funds,
		transactions: transactions,
		latestPrices: LatestPrices(transactions),
	}
}

func (s *Snapshot) Holdings() []Holding         { return s.holdings }
func (s *Snapshot) CashBalances() []CashBalance { return s.cash }
func (s *Snapshot) Funds() []Fund               { return s.funds }

func (s *Snapshot) LatestPrices() map[string]float64 {
	out := make(map[string]float64, len(s.latestPrices))
	for k, v := range s.latestPrices {
		out[k] = v
	}
	return out
}

// Values exposes the snapshot under its tool-facing names. Cash balances
// appear under both cash_accounts and cash_balances.
func (s *Snapshot) Values() map[string]any {
	return map[string]any{
		KeyHoldings:     s.holdings,
		KeyCashAccounts: s.cash,
		KeyCashBalances: s.cash,
		KeyFundMetadata: s.funds,
		KeyAccounts:     s.accounts,
		KeyTransactions: s.transactions,
		KeyLatestPrices: s.LatestPrices(),
	}
}

// FundsByISIN indexes fund metadata. Later duplicates win.
func FundsByISIN(funds []Fund) map[string]Fund {
	out := make(map[string]Fund, len(funds))
	for _, f := range funds {
		out[f.ISIN] = f
	}
	return out
}

func TotalCash(cash []CashBalance) float64 {
	var total float64
	for _, c := range cash {
		total += c.Balance
	}
	return total
}
