package shared

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseHeaders parses repeated "Name: value" flag values into an
// http.Header. Returns nil if specs is empty.
func ParseHeaders(specs []string) (http.Header, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	header := make(http.Header, len(specs))
	for _, spec := range specs {
		name, value, found := strings.Cut(spec, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("parsing %q: format should be 'Name: value'", spec)
		}
		header.Add(name, strings.TrimSpace(value))
	}
	return header, nil
}
