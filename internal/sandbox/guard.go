package sandbox

import (
	"fmt"
	"runtime"
	"strings"
)

// Guard renders the safety prelude prepended to every untrusted program
// before it reaches the interpreter. The prelude runs inside the child
// process only, so concurrently executing jobs can never observe each
// other's restrictions. A fresh prelude is rendered per execution.
//
// This reduces, not eliminates, the blast radius: the hard boundary is
// the per-job process group (or container). Restrictions the host cannot
// support are skipped and reported through Capabilities, never faked.
type Guard struct {
	// MaxMemoryBytes caps the child's address space via rlimits where
	// the platform supports it. Zero disables the cap.
	MaxMemoryBytes int64
}

// Capabilities reports which guard restrictions the host platform can
// actually enforce. Known gaps are surfaced here instead of being
// silently swallowed.
type Capabilities struct {
	// ResourceLimits is true when rlimit-based memory caps apply.
	ResourceLimits bool
	// GroupKill is true when a timed-out job's entire process group can
	// be forcibly terminated, taking any threads it spawned with it.
	GroupKill bool
}

// NewGuard returns a Guard with the given memory cap in megabytes.
func NewGuard(maxMemoryMB int) *Guard {
	return &Guard{MaxMemoryBytes: int64(maxMemoryMB) * 1024 * 1024}
}

// Capabilities reports platform support for the current host.
func (g *Guard) Capabilities() Capabilities {
	return Capabilities{
		ResourceLimits: runtime.GOOS != "windows",
		GroupKill:      runtime.GOOS != "windows",
	}
}

// blockedOSCalls are nilled out inside the child. os.chdir, os.getcwd and
// os.rmdir stay usable: the guarded program may legitimately inspect its
// scratch directory, and nilling them would break interpreter shutdown
// paths that the harness relies on.
var blockedOSCalls = []string{
	"kill", "system", "putenv", "remove", "removedirs", "rename",
	"renames", "replace", "truncate", "unlink", "fchdir", "setuid",
	"fork", "forkpty", "killpg", "fchmod", "fchown", "chmod", "chown",
	"chroot", "lchflags", "lchmod", "lchown",
}

// Prelude renders the Python guard source. Rendering never fails; every
// restriction inside the prelude is individually wrapped so that a
// missing module or read-only attribute cannot abort the run before the
// untrusted code is even reached.
func (g *Guard) Prelude() string {
	var b strings.Builder
	b.WriteString("def __guard__():\n")
	b.WriteString("    import builtins, faulthandler, os, sys\n")
	b.WriteString("    faulthandler.disable()\n")
	b.WriteString("    os.environ[\"OMP_NUM_THREADS\"] = \"1\"\n")

	if g.MaxMemoryBytes > 0 && g.Capabilities().ResourceLimits {
		limit := g.MaxMemoryBytes
		b.WriteString("    try:\n")
		b.WriteString("        import resource\n")
		fmt.Fprintf(&b, "        resource.setrlimit(resource.RLIMIT_AS, (%d, %d))\n", limit, limit)
		fmt.Fprintf(&b, "        resource.setrlimit(resource.RLIMIT_DATA, (%d, %d))\n", limit, limit)
		if runtime.GOOS != "darwin" {
			fmt.Fprintf(&b, "        resource.setrlimit(resource.RLIMIT_STACK, (%d, %d))\n", limit, limit)
		}
		b.WriteString("    except Exception:\n        pass\n")
	}

	b.WriteString("    builtins.exit = None\n")
	b.WriteString("    builtins.quit = None\n")
	b.WriteString("    builtins.help = None\n")

	b.WriteString("    for __name in (")
	for i, name := range blockedOSCalls {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", name)
	}
	b.WriteString("):\n")
	b.WriteString("        try:\n")
	b.WriteString("            setattr(os, __name, None)\n")
	b.WriteString("        except Exception:\n            pass\n")

	// Cleanup of the scratch dir happens on the Go side, so the child
	// does not need shutil.rmtree either.
	b.WriteString("    try:\n")
	b.WriteString("        import shutil\n")
	b.WriteString("        shutil.move = None\n")
	b.WriteString("        shutil.chown = None\n")
	b.WriteString("        shutil.rmtree = None\n")
	b.WriteString("    except Exception:\n        pass\n")

	b.WriteString("    try:\n")
	b.WriteString("        import subprocess\n")
	b.WriteString("        subprocess.Popen = None\n")
	b.WriteString("    except Exception:\n        pass\n")

	b.WriteString("    sys.modules[\"ipdb\"] = None\n")
	b.WriteString("    sys.modules[\"resource\"] = None\n")

	b.WriteString("\n\ntry:\n    __guard__()\nexcept Exception:\n    pass\ndel __guard__\n")
	return b.String()
}
