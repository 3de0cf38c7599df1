/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: args.go
Description: Command-line parsing for harness binaries. Only -runs=N is understood;
every other argument is a candidate input path.
*/

package input

import (
	"strings"

	"github.com/kleascm/akaylee-driver/pkg/core"
)

const runsPrefix = "-runs="

// ParseArgs splits the positional arguments (program name excluded) into the -runs
// cap and the path candidates. A malformed count parses as 0; a negative one leaves
// the run unbounded.
func ParseArgs(args []string, maxLen int) core.RunConfig {
	cfg := core.RunConfig{
		Runs:   core.Unbounded,
		MaxLen: maxLen,
		Paths:  make([]string, 0, len(args)),
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, runsPrefix) {
			runs := core.ClampInt(core.ParseCount(arg[len(runsPrefix):]))
			if runs < 0 {
				runs = core.Unbounded
			}
			cfg.Runs = runs
			continue
		}
		cfg.Paths = append(cfg.Paths, arg)
	}

	return cfg
}
