package viewclient

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundupworks/yksp/devices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const captureScreen = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.groundupworks.flyingphotobooth" content-desc="" enabled="true" clickable="false" bounds="[0,0][1080,1920]">
    <node index="0" text="PHOTO 1 OF 2" resource-id="com.groundupworks.flyingphotobooth:id/title" class="android.widget.TextView" package="com.groundupworks.flyingphotobooth" content-desc="" enabled="true" clickable="false" bounds="[0,100][1080,200]" />
    <node index="1" text="CAPTURE" resource-id="" class="android.widget.Button" package="com.groundupworks.flyingphotobooth" content-desc="" enabled="true" clickable="true" bounds="[340,1700][740,1820]" />
    <node index="2" text="" resource-id="com.groundupworks.flyingphotobooth:id/preferences_button" class="android.widget.ImageButton" package="com.groundupworks.flyingphotobooth" content-desc="Preferences" enabled="false" clickable="true" bounds="[960,40][1060,140]" />
  </node>
</hierarchy>`

type fakeDevice struct {
	dump    []byte
	dumpErr error
	taps    []devices.Point
}

func (f *fakeDevice) DumpHierarchy(ctx context.Context) ([]byte, error) {
	return f.dump, f.dumpErr
}

func (f *fakeDevice) Tap(ctx context.Context, x, y int) error {
	f.taps = append(f.taps, devices.Point{X: x, Y: y})
	return nil
}

func dumped(t *testing.T, xml string) (*Client, *fakeDevice) {
	t.Helper()
	d := &fakeDevice{dump: []byte(xml)}
	c := New(d)
	_, err := c.Dump(context.Background())
	require.NoError(t, err)
	return c, d
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		input   string
		want    Bounds
		wantErr bool
	}{
		{"[0,0][1080,1920]", Bounds{0, 0, 1080, 1920}, false},
		{"[340,1700][740,1820]", Bounds{340, 1700, 740, 1820}, false},
		{"[-10,0][10,20]", Bounds{-10, 0, 10, 20}, false},
		{"0,0,10,10", Bounds{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBounds(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBounds(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBounds(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDump_AssignsIDs(t *testing.T) {
	c, _ := dumped(t, captureScreen)

	views := c.Views()
	require.Len(t, views, 4)
	assert.Len(t, c.Roots(), 1)

	assert.Equal(t, "id/no_id/1", views[0].ID)
	assert.Equal(t, "com.groundupworks.flyingphotobooth:id/title", views[1].ID)
	assert.Equal(t, "id/no_id/3", views[2].ID)
	assert.Equal(t, 1, views[2].Depth)
	assert.Len(t, views[0].Children, 3)
}

func TestFindViewWithText(t *testing.T) {
	c, d := dumped(t, captureScreen)

	v, err := c.FindViewWithTextOrRaise("CAPTURE")
	require.NoError(t, err)
	assert.Equal(t, devices.Point{X: 540, Y: 1760}, v.Center())

	require.NoError(t, v.Touch(context.Background()))
	assert.Equal(t, []devices.Point{{X: 540, Y: 1760}}, d.taps)

	_, err = c.FindViewWithTextOrRaise("PHOTO 2 OF 2")
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.Nil(t, c.FindViewWithText("capture"), "text matching is exact")
}

func TestFindViewByID(t *testing.T) {
	c, _ := dumped(t, captureScreen)

	v, err := c.FindViewByIDOrRaise("com.groundupworks.flyingphotobooth:id/preferences_button")
	require.NoError(t, err)
	assert.False(t, v.IsEnabled())
	assert.Equal(t, "Preferences", v.ContentDesc)

	assert.NotNil(t, c.FindViewByID("id/no_id/3"))

	_, err = c.FindViewByIDOrRaise("id/missing")
	var notFound *ViewNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ID", notFound.By)
}

func TestFindViewsWithText(t *testing.T) {
	screen := `<hierarchy rotation="0"><node class="android.widget.ListView" bounds="[0,0][100,300]">
<node class="android.widget.TextView" text="Enable one-click or auto share" bounds="[0,0][100,100]" />
<node class="android.widget.TextView" text="Enable one-click or auto share" bounds="[0,100][100,200]" />
<node class="android.widget.TextView" text="Arrangement" bounds="[0,200][100,300]" />
</node></hierarchy>`
	c, _ := dumped(t, screen)

	assert.Len(t, c.FindViewsWithText("Enable one-click or auto share"), 2)
	assert.Len(t, c.FindViewsByID("id/no_id/4"), 1)
}

func TestTraverse(t *testing.T) {
	c, _ := dumped(t, captureScreen)

	var buf bytes.Buffer
	require.NoError(t, c.Traverse(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "android.widget.FrameLayout id/no_id/1  (0, 0) 1080x1920", lines[0])
	assert.Equal(t, "   android.widget.Button id/no_id/3 CAPTURE (340, 1700) 400x120", lines[2])
}

func TestDump_Errors(t *testing.T) {
	c := New(&fakeDevice{dumpErr: errors.New("device offline")})
	_, err := c.Dump(context.Background())
	assert.ErrorContains(t, err, "device offline")

	c = New(&fakeDevice{dump: []byte("<hierarchy><node bounds=\"nope\"/></hierarchy>")})
	_, err = c.Dump(context.Background())
	assert.ErrorContains(t, err, "invalid bounds")

	c = New(&fakeDevice{dump: []byte("not xml")})
	_, err = c.Dump(context.Background())
	assert.Error(t, err)
}
