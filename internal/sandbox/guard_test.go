package sandbox

import (
	"runtime"
	"strings"
	"testing"
)

func TestPreludeBlocksDangerousCalls(t *testing.T) {
	prelude := NewGuard(0).Prelude()

	for _, want := range []string{
		"builtins.exit = None",
		"builtins.quit = None",
		"builtins.help = None",
		"subprocess.Popen = None",
		"shutil.move = None",
		"faulthandler.disable()",
		`"kill"`,
		`"remove"`,
		`"fork"`,
		`"system"`,
	} {
		if !strings.Contains(prelude, want) {
			t.Errorf("prelude missing %q", want)
		}
	}
}

func TestPreludeKeepsCleanupCalls(t *testing.T) {
	prelude := NewGuard(0).Prelude()
	for _, kept := range []string{`"chdir"`, `"getcwd"`, `"rmdir"`} {
		if strings.Contains(prelude, kept) {
			t.Errorf("prelude must not disable %s", kept)
		}
	}
}

func TestPreludeMemoryLimit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("resource limits unsupported on windows")
	}
	without := NewGuard(0).Prelude()
	if strings.Contains(without, "setrlimit") {
		t.Error("prelude applies rlimits with no cap configured")
	}
	with := NewGuard(512).Prelude()
	if !strings.Contains(with, "RLIMIT_AS") {
		t.Error("prelude missing address-space limit")
	}
	if !strings.Contains(with, "RLIMIT_DATA") {
		t.Error("prelude missing data limit")
	}
}

func TestPreludeNeverAbortsTheProgram(t *testing.T) {
	// Every restriction is individually guarded; the top-level call is
	// too, so a hostile or exotic interpreter state cannot turn the
	// guard itself into a verdict.
	prelude := NewGuard(256).Prelude()
	if !strings.Contains(prelude, "except Exception:") {
		t.Error("prelude has no exception guards")
	}
	if !strings.Contains(prelude, "try:\n    __guard__()") {
		t.Error("guard invocation is not wrapped")
	}
}

func TestCapabilities(t *testing.T) {
	caps := NewGuard(0).Capabilities()
	if runtime.GOOS == "windows" {
		if caps.ResourceLimits || caps.GroupKill {
			t.Error("windows must report guard gaps")
		}
	} else {
		if !caps.ResourceLimits || !caps.GroupKill {
			t.Error("unix platforms support rlimits and group kill")
		}
	}
}
