package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

//go:embed template/system.txt
var systemRaw string

// System returns the advisor's system prompt.
func System() (string, error) {
	s := strings.TrimSpace(systemRaw)
	if s == "" {
		return "", fmt.Errorf("%w: system", contractx.ErrPromptMissing)
	}
	return s, nil
}

func MustSystem() string {
	s, err := System()
	if err != nil {
		panic(err)
	}
	return s
}
