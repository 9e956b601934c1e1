package portfolio

// Holding is one position in a fund, valued in GBP.
type Holding struct {
	AccountID string  `json:"account_id" mapstructure:"account_id"`
	ISIN      string  `json:"isin" mapstructure:"isin"`
	Quantity  float64 `json:"quantity" mapstructure:"quantity"`
	Value     float64 `json:"value" mapstructure:"value"`
}

type CashBalance struct {
	AccountID string  `json:"account_id" mapstructure:"account_id"`
	Currency  string  `json:"currency" mapstructure:"currency"`
	Balance   float64 `json:"balance" mapstructure:"balance"`
}

type Account struct {
	AccountID string `json:"account_id" mapstructure:"account_id"`
	Name      string `json:"name" mapstructure:"name"`
	Type      string `json:"type" mapstructure:"type"`
}

// Fund describes an instrument. OngoingCharge is a percentage per annum.
// Bucket names the allocation bucket the fund is the default buy for.
type Fund struct {
	ISIN          string  `json:"isin" mapstructure:"isin"`
	Name          string  `json:"name" mapstructure:"name"`
	AssetClass    string  `json:"asset_class" mapstructure:"asset_class"`
	OngoingCharge float64 `json:"ongoing_charge" mapstructure:"ongoing_charge"`
	Bucket        string  `json:"bucket,omitempty" mapstructure:"bucket"`
}

// Transaction is a historical purchase. Timestamp is ISO-8601 without zone.
type Transaction struct {
	AccountID string  `json:"account_id" mapstructure:"account_id"`
	ISIN      string  `json:"isin" mapstructure:"isin"`
	Quantity  float64 `json:"quantity" mapstructure:"quantity"`
	Price     float64 `json:"price" mapstructure:"price"`
	Timestamp string  `json:"timestamp" mapstructure:"timestamp"`
}
