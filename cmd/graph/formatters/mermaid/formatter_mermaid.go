package mermaid

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/kettle/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/kettle/dependency"
)

// Formatter formats dependency chains as Mermaid.js flowcharts.
type Formatter struct{}

// Format converts the chain to a Mermaid.js flowchart. Nodes appear in build
// order; targets without an install action are drawn rounded and the
// requested targets are highlighted.
func (f *Formatter) Format(chain *dependency.Chain, opts formatters.RenderOptions) (string, error) {
	var sb strings.Builder

	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}

	sb.WriteString("flowchart LR\n")

	// Mermaid node IDs can't contain dots or dashes, which target names often do.
	nodeIDs := make(map[string]string, len(chain.Ordered))
	nodes := formatters.Nodes(chain)
	var direct []string
	for i, n := range nodes {
		id := fmt.Sprintf("n%d", i)
		nodeIDs[n.Name] = id

		label := strings.ReplaceAll(nodeLabel(n), "\"", "#quot;")
		if n.Action {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s(\"%s\")\n", id, label))
		}
		if n.Direct {
			direct = append(direct, id)
		}
	}

	for _, r := range chain.Ordered {
		for _, dep := range chain.DependenciesOf(r.Provider) {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[r.Provider.Name()], nodeIDs[dep.Name()]))
		}
	}

	if len(direct) > 0 {
		sb.WriteString("    classDef requested stroke-width:3px\n")
		sb.WriteString(fmt.Sprintf("    class %s requested\n", strings.Join(direct, ",")))
	}

	return sb.String(), nil
}

func nodeLabel(n formatters.Node) string {
	if n.Dependency == n.Name {
		return n.Name
	}
	return fmt.Sprintf("%s<br/>%s", n.Name, n.Dependency)
}
