package scraper

import (
	"sort"
	"strings"
)

var registry = map[string]Dashboard{}

func Register(d Dashboard) {
	registry[strings.ToLower(d.Name)] = d
}

func Get(name string) (Dashboard, bool) {
	d, ok := registry[strings.ToLower(name)]
	return d, ok
}

// Names lists the registered dashboards, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
