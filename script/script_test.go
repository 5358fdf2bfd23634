package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Examples(t *testing.T) {
	capture, err := Load(filepath.Join("testdata", "testCapture.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "CaptureTestCase", capture.Name)
	assert.Equal(t, "testCapture", capture.BaseName())
	require.Len(t, capture.Tests, 2)

	drag := capture.Tests[1].Steps[4]
	assert.Equal(t, ActionDrag, drag.Action)
	assert.Equal(t, "PHOTO 1 OF 2", drag.From.Text)
	assert.Equal(t, 500*time.Millisecond, drag.Duration.Std())

	linking, err := Load(filepath.Join("testdata", "testAbandonLinking.yaml"))
	require.NoError(t, err)
	loop := linking.Tests[0].Steps[9]
	assert.Equal(t, ActionForEach, loop.Action)
	require.Len(t, loop.Steps, 5)
	assert.Equal(t, 500*time.Millisecond, loop.Steps[3].Sleep.Std())
	assert.Equal(t, 3, *linking.Tests[0].Steps[8].Count)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty document",
			yaml:    "",
			wantErr: "script is empty",
		},
		{
			name:    "no tests",
			yaml:    "name: Empty\n",
			wantErr: "script has no tests",
		},
		{
			name:    "unknown field",
			yaml:    "name: X\ntests:\n  - name: a\n    steps:\n      - {action: launch, colour: red}\n",
			wantErr: "colour",
		},
		{
			name:    "unknown action",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: launch}\n      - {action: fly}\n",
			wantErr: `tests[0] (a).steps[1]: unknown action "fly"`,
		},
		{
			name:    "find with both selectors",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: find, id: x, text: y}\n",
			wantErr: "exactly one of id or text",
		},
		{
			name:    "touch current outside loop",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: touch, current: true}\n",
			wantErr: "only valid inside for_each",
		},
		{
			name:    "nested error path",
			yaml:    "tests:\n  - name: a\n    steps:\n      - action: for_each\n        text: x\n        steps:\n          - {action: press, key: nowhere}\n",
			wantErr: "tests[0] (a).steps[0].steps[0]",
		},
		{
			name:    "drag without target",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: drag, from: {text: a}}\n",
			wantErr: "drag requires from and to",
		},
		{
			name:    "bad duration",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: sleep, duration: soon}\n",
			wantErr: "invalid duration",
		},
		{
			name:    "infinite duration",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: sleep, duration: inf}\n",
			wantErr: "out of range",
		},
		{
			name:    "NaN duration",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: sleep, duration: NaN}\n",
			wantErr: "out of range",
		},
		{
			name:    "overflowing duration",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: sleep, duration: 1e300}\n",
			wantErr: "out of range",
		},
		{
			name:    "assert_count without count",
			yaml:    "tests:\n  - name: a\n    steps:\n      - {action: assert_count, text: a}\n",
			wantErr: "non-negative count",
		},
		{
			name:    "duplicate test",
			yaml:    "tests:\n  - name: a\n    steps: [{action: launch}]\n  - name: a\n    steps: [{action: launch}]\n",
			wantErr: "duplicate test name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_StepErrorUnwraps(t *testing.T) {
	_, err := Parse([]byte("tests:\n  - name: a\n    steps:\n      - {action: type}\n"))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "tests[0] (a).steps[0]", stepErr.Path)
}

func TestStep_WithIndex(t *testing.T) {
	loop := Step{
		Action: ActionForEach,
		Text:   "row",
		Steps: []Step{
			{Action: ActionSaveScreen, Tag: "service-{index}"},
			{Action: ActionForEach, Text: "inner", Steps: []Step{{Action: ActionSaveScreen, Tag: "x-{index}"}}},
		},
	}

	got := loop.WithIndex(2)
	assert.Equal(t, "service-2", got.Steps[0].Tag)
	assert.Equal(t, "x-2", got.Steps[1].Steps[0].Tag)
	assert.Equal(t, "service-{index}", loop.Steps[0].Tag, "original is untouched")
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	_, err = Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNoScripts)

	_, err = Find(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNoScripts)
}
