// Package tokens estimates how many model tokens a message costs.
package tokens

import (
	"encoding/json"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

const (
	fallbackEncoding = "cl100k_base"
	defaultCacheSize = 16
)

// Loader resolves the encoding for a model name.
type Loader func(model string) (*tiktoken.Tiktoken, error)

type Option func(*Counter)

func WithLoader(load Loader) Option {
	return func(c *Counter) {
		if load != nil {
			c.load = load
		}
	}
}

// Counter counts tokens with the model's tiktoken encoding, falling back to
// cl100k_base and then to four characters per token. Encoders are cached
// per model, including failed lookups.
type Counter struct {
	cache *lru.Cache[string, *tiktoken.Tiktoken]
	load  Loader
}

func NewCounter(opts ...Option) (*Counter, error) {
	cache, err := lru.New[string, *tiktoken.Tiktoken](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	c := &Counter{cache: cache, load: loadEncoding}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Counter) Count(model string, text string) int {
	enc := c.encoder(model)
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// CountMessage prices a message by its JSON form, so role and tool-call
// fields count too.
func (c *Counter) CountMessage(model string, msg contractx.Message) int {
	raw, err := json.Marshal(msg)
	if err != nil {
		return c.Count(model, msg.Content)
	}
	return c.Count(model, string(raw))
}

func (c *Counter) encoder(model string) *tiktoken.Tiktoken {
	model = strings.TrimSpace(model)
	if enc, ok := c.cache.Get(model); ok {
		return enc
	}
	enc, err := c.load(model)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("token encoding unavailable, using length estimate")
		enc = nil
	}
	c.cache.Add(model, enc)
	return enc
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return enc, nil
		}
	}
	return tiktoken.GetEncoding(fallbackEncoding)
}
