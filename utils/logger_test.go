package utils

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetVerbose_And_IsVerbose(t *testing.T) {
	// save original state and restore after test
	original := IsVerbose()
	defer SetVerbose(original)

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected IsVerbose() = true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected IsVerbose() = false after SetVerbose(false)")
	}
}

func TestVerbose_SuppressedWhenDisabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Verbose("hidden %s", "message")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestVerbose_WrittenWhenEnabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(true)
	Verbose("test message %s %d", "arg", 42)
	if !strings.Contains(buf.String(), "test message arg 42") {
		t.Errorf("expected verbose line, got %q", buf.String())
	}
}

func TestInfo_AlwaysWritten(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("test info %s", "message")
	if !strings.Contains(buf.String(), "test info message") {
		t.Errorf("expected info line, got %q", buf.String())
	}
}
