package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/LegacyCodeHQ/kettle/environment"
)

// hclRootFile is the decoding target for kettle.hcl.
type hclRootFile struct {
	Configurations []*hclConfiguration `hcl:"configuration,block"`
	Packages       []string            `hcl:"packages,optional"`
}

type hclConfiguration struct {
	Name          string          `hcl:"name,label"`
	PlatformsPath string          `hcl:"platforms_path,optional"`
	Select        []string        `hcl:"select,optional"`
	Environment   *hclEnvironment `hcl:"environment,block"`
}

// hclEnvironment keeps its body undecoded so directives stay in source order.
type hclEnvironment struct {
	Body hcl.Body `hcl:",remain"`
}

// hclPackageFile is the decoding target for package.hcl.
type hclPackageFile struct {
	Name        string          `hcl:"name,optional"`
	Environment *hclEnvironment `hcl:"environment,block"`
	Targets     []*hclTarget    `hcl:"target,block"`
}

type hclTarget struct {
	Name     string        `hcl:"name,label"`
	Depends  []string      `hcl:"depends,optional"`
	Priority int           `hcl:"priority,optional"`
	Provides []*hclProvide `hcl:"provides,block"`
	Library  *hclLibrary   `hcl:"library,block"`
}

type hclProvide struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclLibrary struct {
	Name       string   `hcl:"name"`
	Sources    []string `hcl:"sources,optional"`
	Headers    []string `hcl:"headers,optional"`
	HeaderRoot string   `hcl:"header_root,optional"`
}

var directiveSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "set", LabelNames: []string{"key"}},
		{Type: "default", LabelNames: []string{"key"}},
		{Type: "append", LabelNames: []string{"key"}},
	},
}

var directiveOps = map[string]environment.Op{
	"set":     environment.OpSet,
	"default": environment.OpDefault,
	"append":  environment.OpAppend,
}

// decodeDirectives reads set, default and append blocks in source order. The
// value expressions stay unevaluated until the environment is read.
func decodeDirectives(body hcl.Body) ([]environment.Directive, hcl.Diagnostics) {
	content, diags := body.Content(directiveSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	directives := make([]environment.Directive, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		attrs, attrDiags := block.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		if attrDiags.HasErrors() {
			continue
		}

		value, ok := attrs["value"]
		if !ok || len(attrs) != 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid directive",
				Detail:   fmt.Sprintf("The %s %q block must contain exactly one attribute named \"value\".", block.Type, block.Labels[0]),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}

		directives = append(directives, environment.Directive{
			Op:      directiveOps[block.Type],
			Key:     block.Labels[0],
			Binding: environment.Expression(value.Expr),
		})
	}
	return directives, diags
}

func decodeFragment(body hcl.Body) (func(*environment.Builder), hcl.Diagnostics) {
	directives, diags := decodeDirectives(body)
	if diags.HasErrors() {
		return nil, diags
	}
	return func(b *environment.Builder) {
		b.Add(directives...)
	}, diags
}

func decodeEnvironment(block *hclEnvironment) (*environment.Environment, hcl.Diagnostics) {
	if block == nil {
		return nil, nil
	}
	directives, diags := decodeDirectives(block.Body)
	if diags.HasErrors() {
		return nil, diags
	}
	return environment.New(directives...), diags
}
