package shared

import "testing"

func TestGetFlags(t *testing.T) {
	t.Parallel()

	flags := GetFlags()

	if flags == nil {
		t.Fatal("GetFlags() returned nil")
	}

	if len(flags) == 0 {
		t.Error("GetFlags() should return at least one flag")
	}

	flagNames := make(map[string]bool)
	for _, flag := range flags {
		if names := flag.Names(); len(names) > 0 {
			flagNames[names[0]] = true
		}
	}

	if !flagNames[VerboseFlag] {
		t.Errorf("expected flag %q not found", VerboseFlag)
	}
}
