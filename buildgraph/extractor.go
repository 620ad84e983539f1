package buildgraph

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPatterns match C, C++ and Objective-C sources and headers.
var DefaultPatterns = []string{`\.c(c|pp)?$`, `\.h(pp)?$`, `\.mm?$`}

// Extractor finds the files a single file textually depends on.
type Extractor interface {
	Matches(path string) bool
	Extract(path string) ([]string, error)
}

// CompilePatterns compiles filename patterns.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("source pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// PreprocessorExtractor follows #include and #import directives.
type PreprocessorExtractor struct {
	fs       afero.Fs
	patterns []*regexp.Regexp
	roots    []string
}

// NewPreprocessorExtractor creates an extractor that resolves includes against roots.
func NewPreprocessorExtractor(fs afero.Fs, patterns []*regexp.Regexp, roots []string) *PreprocessorExtractor {
	return &PreprocessorExtractor{
		fs:       fs,
		patterns: patterns,
		roots:    append([]string(nil), roots...),
	}
}

// Roots returns the include search directories in search order.
func (e *PreprocessorExtractor) Roots() []string {
	return append([]string(nil), e.roots...)
}

func (e *PreprocessorExtractor) Matches(path string) bool {
	for _, re := range e.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Extract returns the resolved includes of path, sorted. Includes that do
// not resolve under any root, such as system headers, are dropped.
func (e *PreprocessorExtractor) Extract(path string) ([]string, error) {
	content, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var includes []Include
	if isObjectiveC(path) {
		includes = ParseImports(content)
	} else {
		includes, err = ParseIncludes(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse includes in %s: %w", path, err)
		}
	}

	seen := make(map[string]bool)
	var deps []string
	for _, inc := range includes {
		resolved, ok := e.resolve(path, inc)
		if !ok || seen[resolved] || resolved == path {
			continue
		}
		seen[resolved] = true
		deps = append(deps, resolved)
	}
	sort.Strings(deps)
	return deps, nil
}

func (e *PreprocessorExtractor) resolve(source string, inc Include) (string, bool) {
	if filepath.IsAbs(inc.Path) {
		return filepath.Clean(inc.Path), e.isFile(inc.Path)
	}

	var candidates []string
	if inc.Kind == IncludeLocal {
		candidates = append(candidates, filepath.Join(filepath.Dir(source), inc.Path))
	}
	for _, root := range e.roots {
		candidates = append(candidates, filepath.Join(root, inc.Path))
	}

	for _, candidate := range candidates {
		if e.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (e *PreprocessorExtractor) isFile(path string) bool {
	info, err := e.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func isObjectiveC(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".m" || ext == ".mm"
}
