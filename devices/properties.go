package devices

import (
	"regexp"
	"sort"
	"strings"
)

const (
	PropManufacturer = "ro.product.manufacturer"
	PropModel        = "ro.product.model"
	PropSDK          = "ro.build.version.sdk"
	PropRelease      = "ro.build.version.release"
)

// SummaryProperties are echoed to the console when a device is prepared.
var SummaryProperties = []string{PropManufacturer, PropModel, PropSDK}

var propLine = regexp.MustCompile(`^\[(.+?)\]: \[(.*)\]$`)

// Properties is the parsed output of `getprop`.
type Properties map[string]string

// Get returns the value for key or an empty string.
func (p Properties) Get(key string) string {
	return p[key]
}

// Line formats key the way getprop prints it.
func (p Properties) Line(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	return "[" + key + "]: [" + v + "]", true
}

// Keys returns the property names in sorted order.
// Summary returns the SummaryProperties that are set.
func (p Properties) Summary() Properties {
	out := make(Properties)
	for _, key := range SummaryProperties {
		if v, ok := p[key]; ok {
			out[key] = v
		}
	}
	return out
}

func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseProperties parses getprop output. Values continuing over several
// lines are joined with newlines.
func ParseProperties(output string) Properties {
	props := make(Properties)

	var pendingKey string
	var pending []string

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")

		if pendingKey != "" {
			if strings.HasSuffix(line, "]") {
				pending = append(pending, strings.TrimSuffix(line, "]"))
				props[pendingKey] = strings.Join(pending, "\n")
				pendingKey = ""
				pending = nil
			} else {
				pending = append(pending, line)
			}
			continue
		}

		if m := propLine.FindStringSubmatch(line); m != nil {
			props[m[1]] = m[2]
			continue
		}

		// "[key]: [first line" with the closing bracket further down
		if strings.HasPrefix(line, "[") {
			if idx := strings.Index(line, "]: ["); idx > 0 {
				pendingKey = line[1:idx]
				pending = []string{line[idx+4:]}
			}
		}
	}

	return props
}
