package viewclient

import (
	"context"
	"fmt"

	"github.com/groundupworks/yksp/devices"
)

// Bounds is the on-screen rectangle of a view, right and bottom exclusive.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (b Bounds) Width() int {
	return b.Right - b.Left
}

func (b Bounds) Height() int {
	return b.Bottom - b.Top
}

// Center returns the middle of the rectangle.
func (b Bounds) Center() devices.Point {
	return devices.Point{
		X: (b.Left + b.Right) / 2,
		Y: (b.Top + b.Bottom) / 2,
	}
}

// View is one node of the window hierarchy.
type View struct {
	// ID is the resource id, or id/no_id/N for views without one.
	ID          string  `json:"id"`
	ResourceID  string  `json:"resourceId,omitempty"`
	Class       string  `json:"class"`
	Package     string  `json:"package,omitempty"`
	Text        string  `json:"text,omitempty"`
	ContentDesc string  `json:"contentDesc,omitempty"`
	Enabled     bool    `json:"enabled"`
	Clickable   bool    `json:"clickable"`
	Checked     bool    `json:"checked"`
	Focused     bool    `json:"focused"`
	Scrollable  bool    `json:"scrollable"`
	Bounds      Bounds  `json:"bounds"`
	Depth       int     `json:"depth"`
	Children    []*View `json:"children,omitempty"`

	client *Client
}

func (v *View) Center() devices.Point {
	return v.Bounds.Center()
}

func (v *View) IsEnabled() bool {
	return v.Enabled
}

// Touch taps the center of the view.
func (v *View) Touch(ctx context.Context) error {
	if v.client == nil {
		return fmt.Errorf("view %s is not attached to a client", v.ID)
	}

	c := v.Center()
	return v.client.device.Tap(ctx, c.X, c.Y)
}

// String renders class, id, text, top-left position and size.
func (v *View) String() string {
	return fmt.Sprintf("%s %s %s (%d, %d) %dx%d", v.Class, v.ID, v.Text, v.Bounds.Left, v.Bounds.Top, v.Bounds.Width(), v.Bounds.Height())
}
