// Package fixtures holds real-shaped hand-history exports used by tests
// across the module.
package fixtures

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed hands/*.txt
var hands embed.FS

// Hand returns the named fixture without its .txt suffix. It panics on an
// unknown name; fixtures are compiled in, so a miss is a programming error.
func Hand(name string) string {
	b, err := hands.ReadFile("hands/" + name + ".txt")
	if err != nil {
		panic(fmt.Sprintf("fixtures: %v", err))
	}
	return string(b)
}

// Names lists every fixture, sorted.
func Names() []string {
	entries, _ := hands.ReadDir("hands")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}
