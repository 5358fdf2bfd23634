// Package viewclient finds views on the device screen and acts on them. The
// window hierarchy comes from the on-device uiautomator dump, touches are
// injected with `input`.
package viewclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrViewNotFound = errors.New("view not found")

// ViewNotFoundError names the lookup that failed.
type ViewNotFoundError struct {
	By    string
	Value string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find view with %s='%s' in tree", e.By, e.Value)
}

func (e *ViewNotFoundError) Is(target error) bool {
	return target == ErrViewNotFound
}

// Device is what the client needs from a device.
type Device interface {
	DumpHierarchy(ctx context.Context) ([]byte, error)
	Tap(ctx context.Context, x, y int) error
}

// Client holds the most recent dump of the window hierarchy. Lookups only see
// that snapshot, call Dump after every screen transition.
type Client struct {
	device Device
	roots  []*View
	views  []*View
}

func New(device Device) *Client {
	return &Client{device: device}
}

// Dump refreshes the hierarchy snapshot and returns all views in pre-order.
func (c *Client) Dump(ctx context.Context) ([]*View, error) {
	data, err := c.device.DumpHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	roots, views, err := Parse(data)
	if err != nil {
		return nil, err
	}

	for _, v := range views {
		v.client = c
	}

	c.roots = roots
	c.views = views
	return views, nil
}

// Views returns the views of the last dump in pre-order.
func (c *Client) Views() []*View {
	return c.views
}

// Roots returns the top level views of the last dump.
func (c *Client) Roots() []*View {
	return c.roots
}

// FindViewByID returns the first view with the given id, or nil.
func (c *Client) FindViewByID(id string) *View {
	for _, v := range c.views {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (c *Client) FindViewByIDOrRaise(id string) (*View, error) {
	if v := c.FindViewByID(id); v != nil {
		return v, nil
	}
	return nil, &ViewNotFoundError{By: "ID", Value: id}
}

// FindViewWithText returns the first view whose text equals text, or nil.
func (c *Client) FindViewWithText(text string) *View {
	for _, v := range c.views {
		if v.Text == text {
			return v
		}
	}
	return nil
}

func (c *Client) FindViewWithTextOrRaise(text string) (*View, error) {
	if v := c.FindViewWithText(text); v != nil {
		return v, nil
	}
	return nil, &ViewNotFoundError{By: "text", Value: text}
}

// FindViewsWithText returns every view whose text equals text.
func (c *Client) FindViewsWithText(text string) []*View {
	var out []*View
	for _, v := range c.views {
		if v.Text == text {
			out = append(out, v)
		}
	}
	return out
}

// FindViewsByID returns every view with the given id.
func (c *Client) FindViewsByID(id string) []*View {
	var out []*View
	for _, v := range c.views {
		if v.ID == id {
			out = append(out, v)
		}
	}
	return out
}

// Traverse writes one line per view, indented by depth, in the form
// "class id text (x, y) WxH".
func (c *Client) Traverse(w io.Writer) error {
	for _, v := range c.views {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("   ", v.Depth), v.String()); err != nil {
			return err
		}
	}
	return nil
}
