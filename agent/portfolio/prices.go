package portfolio

const priceEpoch = "1970-01-01T00:00:00"

// LatestPrices maps each ISIN to the price of its most recent transaction.
// Timestamps compare as strings, which orders ISO-8601 values correctly.
func LatestPrices(txs []Transaction) map[string]float64 {
	type seen struct {
		ts    string
		price float64
	}
	latest := make(map[string]seen)
	for _, tx := range txs {
		cur, ok := latest[tx.ISIN]
		if !ok {
			cur = seen{ts: priceEpoch}
		}
		if tx.Timestamp > cur.ts {
			cur = seen{ts: tx.Timestamp, price: tx.Price}
		}
		latest[tx.ISIN] = cur
	}

	out := make(map[string]float64, len(latest))
	for isin, s := range latest {
		out[isin] = s.price
	}
	return out
}
