package devices

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownHook_RunsNewestFirst(t *testing.T) {
	hook := NewShutdownHook()

	var order []string
	hook.Register("logcat", func() error { order = append(order, "logcat"); return nil })
	hook.Register("backup", func() error { order = append(order, "backup"); return nil })
	require.Equal(t, 2, hook.Count())

	require.NoError(t, hook.Shutdown())
	assert.Equal(t, []string{"backup", "logcat"}, order)
	assert.Equal(t, 0, hook.Count())

	require.NoError(t, hook.Shutdown())
	assert.Len(t, order, 2, "hooks must only run once")
}

func TestShutdownHook_Unregister(t *testing.T) {
	hook := NewShutdownHook()

	called := false
	unregister := hook.Register("logcat emulator-5554", func() error { called = true; return nil })
	hook.Register("backup emulator-5554", func() error { return nil })

	unregister()
	unregister()
	assert.Equal(t, 1, hook.Count())

	require.NoError(t, hook.Shutdown())
	assert.False(t, called)
}

func TestShutdownHook_ErrorsDoNotStopOthers(t *testing.T) {
	hook := NewShutdownHook()

	ran := 0
	hook.Register("first", func() error { ran++; return nil })
	hook.Register("failing", func() error { ran++; return errors.New("kill failed") })
	hook.Register("last", func() error { ran++; return nil })

	err := hook.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: kill failed")
	assert.Equal(t, 3, ran)
	assert.Equal(t, 0, hook.Count())
}

func TestShutdownHook_ConcurrentRegister(t *testing.T) {
	hook := NewShutdownHook()

	var wg sync.WaitGroup
	unregisters := make([]func(), 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			unregisters[n] = hook.Register(fmt.Sprintf("hook-%d", n), func() error { return nil })
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, hook.Count())

	for _, unregister := range unregisters[:4] {
		unregister()
	}
	assert.Equal(t, 6, hook.Count())
}
