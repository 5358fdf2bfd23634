package script

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("500ms", "1s") or plain numbers of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	if seconds, err := strconv.ParseFloat(node.Value, 64); err == nil {
		ns := seconds * float64(time.Second)
		if math.IsNaN(ns) || math.IsInf(ns, 0) || ns >= math.MaxInt64 || ns <= math.MinInt64 {
			return fmt.Errorf("line %d: duration %q is out of range", node.Line, node.Value)
		}
		*d = Duration(ns)
		return nil
	}

	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
