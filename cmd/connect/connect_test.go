package connect

import (
	"testing"

	"sockchan/cmd/shared"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()

	if cmd == nil {
		t.Fatal("GetCommand() returned nil")
	}

	if cmd.Name != "connect" {
		t.Errorf("command name = %q; want %q", cmd.Name, "connect")
	}

	if cmd.Usage == "" {
		t.Error("command usage should not be empty")
	}

	if cmd.Action == nil {
		t.Fatal("command action should not be nil")
	}

	// Check for expected flags
	flagNames := make(map[string]bool)
	for _, flag := range cmd.Flags {
		if names := flag.Names(); len(names) > 0 {
			flagNames[names[0]] = true
		}
	}

	expectedFlags := []string{subprotocolFlag, headerFlag, pingFlag, timeoutFlag, shared.VerboseFlag}
	for _, name := range expectedFlags {
		if !flagNames[name] {
			t.Errorf("expected flag %q not found", name)
		}
	}
}
