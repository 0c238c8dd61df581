package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathPassthroughForAngleBracketed(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj", BaseDir: "/home/user/proj"}
	require.Equal(t, "<built-in>", c.Path("<built-in>"))
	require.Equal(t, "<command-line>", c.Path("<command-line>"))
}

func TestPathMakesRelativeToBaseDir(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj/build", BaseDir: "/home/user/proj"}
	require.Equal(t, "src/main.c", c.Path("/home/user/proj/src/main.c"))
}

func TestPathResolvesRelativeAgainstWorkingDir(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj/src", BaseDir: "/home/user/proj"}
	require.Equal(t, "src/main.c", c.Path("main.c"))
}

func TestPathOutsideBaseDirStaysAbsolute(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj", BaseDir: "/home/user/proj"}
	require.Equal(t, "/usr/include/stdio.h", c.Path("/usr/include/stdio.h"))
}

func TestPathWithoutBaseDirConfiguredStaysAbsolute(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj"}
	require.Equal(t, "/home/user/proj/main.c", c.Path("main.c"))
}

func TestPathCleansDotSegments(t *testing.T) {
	c := Config{WorkingDir: "/home/user/proj", BaseDir: "/home/user/proj"}
	require.Equal(t, "src/main.c", c.Path("./src/../src/main.c"))
}
