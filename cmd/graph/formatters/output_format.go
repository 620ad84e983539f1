package formatters

import "strings"

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatMermaid OutputFormat = "mermaid"
)

var supportedFormats = []OutputFormat{OutputFormatDOT, OutputFormatJSON, OutputFormatMermaid}

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat matches name case-insensitively against the supported formats.
func ParseOutputFormat(name string) (OutputFormat, bool) {
	for _, f := range supportedFormats {
		if strings.EqualFold(name, f.String()) {
			return f, true
		}
	}
	return "", false
}

// SupportedFormats lists the format names for help and error messages.
func SupportedFormats() string {
	names := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}
