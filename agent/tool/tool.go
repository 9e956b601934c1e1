package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/go-viper/mapstructure/v2"
)

// Tool is a deterministic capability the model may ask for.
// Params lists every keyword Run accepts; Required is the subset that has
// no default and must come from the call or the domain context.
type Tool interface {
	Info() *schema.ToolInfo
	Params() []string
	Required() []string
	Run(ctx context.Context, in Input) (Result, error)
}

// Runner invokes a tool by name with explicit arguments layered over the
// domain context.
type Runner interface {
	Run(ctx context.Context, name string, explicit map[string]any) (Result, error)
}

// Input is the keyword set a tool is invoked with.
type Input map[string]any

// Result is either Ok or MissingArgs.
type Result interface {
	result()
}

// Ok is an ordinary tool outcome.
type Ok struct {
	Summary string         `json:"summary"`
	Payload map[string]any `json:"payload"`
}

// MissingArgs reports required parameters that neither the call nor the
// domain context supplied.
type MissingArgs struct {
	Summary string   `json:"summary"`
	Missing []string `json:"missing"`
}

func (Ok) result()          {}
func (MissingArgs) result() {}

const MissingArgumentsSummary = "missing_arguments"

func NewMissingArgs(missing []string) MissingArgs {
	return MissingArgs{
		Summary: MissingArgumentsSummary,
		Missing: missing,
	}
}

func decodeInput(in Input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(in)); err != nil {
		return fmt.Errorf("decode tool input: %w", err)
	}
	return nil
}
