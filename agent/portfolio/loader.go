package portfolio

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	holdingsFile     = "holdings.json"
	cashFile         = "cash_balances.json"
	accountsFile     = "accounts.json"
	fundMetadataFile = "fund_metadata.json"
	transactionsFile = "mock_transactions.json"
)

//go:embed data/*.json
var sampleData embed.FS

// Source produces a fresh Snapshot each time a turn starts.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// FSSource reads the five portfolio documents from a file system root.
type FSSource struct {
	fsys fs.FS
}

var _ Source = (*FSSource)(nil)

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewSource reads from dir when set, otherwise from the bundled sample data.
func NewSource(dir string) (*FSSource, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		sub, err := fs.Sub(sampleData, "data")
		if err != nil {
			return nil, fmt.Errorf("open sample data: %w", err)
		}
		return NewFSSource(sub), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("portfolio data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("portfolio data dir %s is not a directory", dir)
	}
	return NewFSSource(os.DirFS(dir)), nil
}

func (s *FSSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		holdings []Holding
		cash     []CashBalance
		accounts []Account
		funds    []Fund
		txs      []Transaction
	)
	docs := []struct {
		name string
		dst  any
	}{
		{holdingsFile, &holdings},
		{cashFile, &cash},
		{accountsFile, &accounts},
		{fundMetadataFile, &funds},
		{transactionsFile, &txs},
	}
	for _, doc := range docs {
		if err := readJSON(s.fsys, doc.name, doc.dst); err != nil {
			return nil, err
		}
	}

	return NewSnapshot(holdings, cash, accounts, funds, txs), nil
}

func readJSON(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
