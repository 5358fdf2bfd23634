package viewclient

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
)

// noIDFormat names views that carry no resource id, numbered in pre-order.
const noIDFormat = "id/no_id/%d"

var boundsPattern = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

type uiHierarchy struct {
	Nodes []uiNode `xml:"node"`
}

type uiNode struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Nodes []uiNode   `xml:"node"`
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// ParseBounds parses the uiautomator "[x1,y1][x2,y2]" notation.
func ParseBounds(s string) (Bounds, error) {
	m := boundsPattern.FindStringSubmatch(s)
	if m == nil {
		return Bounds{}, fmt.Errorf("invalid bounds %q", s)
	}

	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		v[i] = n
	}

	return Bounds{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}

// Parse builds the view tree from a uiautomator dump. It returns the root
// views and every view in pre-order.
func Parse(data []byte) ([]*View, []*View, error) {
	var hierarchy uiHierarchy
	if err := xml.Unmarshal(data, &hierarchy); err != nil {
		return nil, nil, fmt.Errorf("failed to parse view hierarchy: %w", err)
	}

	var all []*View
	var roots []*View
	for _, node := range hierarchy.Nodes {
		root, err := convertNode(node, 0, &all)
		if err != nil {
			return nil, nil, err
		}
		roots = append(roots, root)
	}

	return roots, all, nil
}

func convertNode(node uiNode, depth int, all *[]*View) (*View, error) {
	v := &View{
		ResourceID:  attrValue(node.Attrs, "resource-id"),
		Class:       attrValue(node.Attrs, "class"),
		Package:     attrValue(node.Attrs, "package"),
		Text:        attrValue(node.Attrs, "text"),
		ContentDesc: attrValue(node.Attrs, "content-desc"),
		Enabled:     attrValue(node.Attrs, "enabled") == "true",
		Clickable:   attrValue(node.Attrs, "clickable") == "true",
		Checked:     attrValue(node.Attrs, "checked") == "true",
		Focused:     attrValue(node.Attrs, "focused") == "true",
		Scrollable:  attrValue(node.Attrs, "scrollable") == "true",
		Depth:       depth,
	}

	if raw := attrValue(node.Attrs, "bounds"); raw != "" {
		b, err := ParseBounds(raw)
		if err != nil {
			return nil, err
		}
		v.Bounds = b
	}

	*all = append(*all, v)
	if v.ResourceID != "" {
		v.ID = v.ResourceID
	} else {
		v.ID = fmt.Sprintf(noIDFormat, len(*all))
	}

	for _, child := range node.Nodes {
		c, err := convertNode(child, depth+1, all)
		if err != nil {
			return nil, err
		}
		v.Children = append(v.Children, c)
	}

	return v, nil
}
