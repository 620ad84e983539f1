package dot

import (
	"strings"

	"github.com/dominikbraun/graph/draw"

	"github.com/LegacyCodeHQ/kettle/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/kettle/dependency"
)

// Formatter formats dependency chains as Graphviz DOT.
type Formatter struct{}

// Format converts the chain to Graphviz DOT format.
func (f *Formatter) Format(chain *dependency.Chain, opts formatters.RenderOptions) (string, error) {
	g, err := chain.Graph()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if opts.Label != "" {
		err = draw.DOT(g, &sb,
			draw.GraphAttribute("rankdir", "LR"),
			draw.GraphAttribute("label", opts.Label),
			draw.GraphAttribute("labelloc", "t"),
		)
	} else {
		err = draw.DOT(g, &sb, draw.GraphAttribute("rankdir", "LR"))
	}
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
