// Package autoload configures the global logger from LOG_* variables when
// imported.
package autoload

import (
	"fmt"
	"os"

	logx "github.com/tanpawarit/portfolio-agent/pkg/logger"

	"github.com/kelseyhightower/envconfig"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v, using defaults\n", err)
		logx.Init()
		return
	}
	logx.Init(conf)
}
