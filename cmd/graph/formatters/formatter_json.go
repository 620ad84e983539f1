package formatters

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/kettle/dependency"
)

// JSONFormatter formats dependency chains as JSON.
type JSONFormatter struct{}

type jsonTarget struct {
	Name         string   `json:"name"`
	Dependency   string   `json:"dependency"`
	Package      string   `json:"package,omitempty"`
	Provides     []string `json:"provides,omitempty"`
	Action       bool     `json:"action"`
	Direct       bool     `json:"direct"`
	Dependencies []string `json:"dependencies"`
}

type jsonChain struct {
	Label   string       `json:"label,omitempty"`
	Roots   []string     `json:"roots"`
	Targets []jsonTarget `json:"targets"`
}

// Format converts the chain to JSON, listing targets in build order.
func (f *JSONFormatter) Format(chain *dependency.Chain, opts RenderOptions) (string, error) {
	out := jsonChain{Label: opts.Label, Roots: chain.Roots, Targets: []jsonTarget{}}
	for i, n := range Nodes(chain) {
		deps := []string{}
		for _, dep := range chain.DependenciesOf(chain.Ordered[i].Provider) {
			deps = append(deps, dep.Name())
		}
		out.Targets = append(out.Targets, jsonTarget{
			Name:         n.Name,
			Dependency:   n.Dependency,
			Package:      n.Package,
			Provides:     n.Provides,
			Action:       n.Action,
			Direct:       n.Direct,
			Dependencies: deps,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
