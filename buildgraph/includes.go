package buildgraph

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// IncludeKind distinguishes quoted includes from angle-bracket includes.
type IncludeKind int

const (
	IncludeLocal IncludeKind = iota
	IncludeSystem
)

// Include is a single preprocessor include or import directive.
type Include struct {
	Path string
	Kind IncludeKind
}

var importDirective = regexp.MustCompile(`^\s*#\s*(?:import|include)\s*([<"])([^>"]+)[>"]`)

// ParseIncludes parses C or C++ source code and extracts its includes.
func ParseIncludes(sourceCode []byte) ([]Include, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	defer tree.Close()

	return extractIncludes(tree.RootNode(), sourceCode), nil
}

// ParseImports scans Objective-C source line by line for #import and #include.
func ParseImports(sourceCode []byte) []Include {
	var includes []Include
	scanner := bufio.NewScanner(bytes.NewReader(sourceCode))
	for scanner.Scan() {
		m := importDirective.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		kind := IncludeLocal
		if m[1] == "<" {
			kind = IncludeSystem
		}
		includes = append(includes, Include{Path: strings.TrimSpace(m[2]), Kind: kind})
	}
	return includes
}

func extractIncludes(rootNode *sitter.Node, sourceCode []byte) []Include {
	var includes []Include

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		if n.Type() == "preproc_include" {
			if inc := includeFromNode(n, sourceCode); inc.Path != "" {
				includes = append(includes, inc)
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}

	walk(rootNode)
	return includes
}

func includeFromNode(node *sitter.Node, sourceCode []byte) Include {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "string_literal":
			return Include{Path: strings.Trim(child.Content(sourceCode), "\"' "), Kind: IncludeLocal}
		case "system_lib_string":
			path := strings.TrimSpace(child.Content(sourceCode))
			path = strings.TrimSuffix(strings.TrimPrefix(path, "<"), ">")
			return Include{Path: strings.TrimSpace(path), Kind: IncludeSystem}
		}
	}
	return Include{}
}
