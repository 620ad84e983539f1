package buildgraph

import "strings"

var includeFlags = []string{"-iquote", "-isystem", "-idirafter", "-I"}

// IncludeDirectories extracts include search directories from compiler flags,
// in order and without duplicates. Both "-Ifoo" and "-I foo" forms are recognised.
func IncludeDirectories(buildflags []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for i := 0; i < len(buildflags); i++ {
		flag := buildflags[i]
		for _, prefix := range includeFlags {
			if !strings.HasPrefix(flag, prefix) {
				continue
			}
			if operand := strings.TrimPrefix(flag, prefix); operand != "" {
				add(operand)
			} else if i+1 < len(buildflags) {
				i++
				add(buildflags[i])
			}
			break
		}
	}
	return dirs
}
