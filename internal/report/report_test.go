package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/store"
)

func TestWriteXMLNonEmptyForSingleCheckAssertion(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{
		{Function: "f", Point: 1, Label: "write_overflow_lower", Outcome: OutcomeSafe},
		{Function: "f", Point: 1, Label: "write_overflow_upper", Outcome: OutcomeSafe},
	}
	require.NoError(t, WriteXML(&buf, "write_overflow", entries))
	require.NotEmpty(t, buf.Bytes())
	require.Contains(t, buf.String(), `function="f"`)
	require.Contains(t, buf.String(), `label="write_overflow_lower"`)
}

func TestWriteXMLEscapesDetailText(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{Function: "f", Point: 1, Label: "deref", Outcome: OutcomeUnsafe, Detail: "n<0 & p==NULL"}}
	require.NoError(t, WriteXML(&buf, "write_deref", entries))
	require.Contains(t, buf.String(), "&lt;")
	require.Contains(t, buf.String(), "&amp;")
	require.NotContains(t, buf.String(), "n<0")
}

func TestAssertionKeyIsStable(t *testing.T) {
	e := Entry{Function: "f", Point: 3, Label: "postcondition"}
	require.Equal(t, "f:3:postcondition", AssertionKey(e))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "report.xdb"))
	require.NoError(t, err)
	defer db.Close()

	e := Entry{Function: "f", Point: 1, Label: "write_overflow_lower", Outcome: OutcomeSafe}
	payload := []byte("<assertion/>")
	require.NoError(t, Save(db, "write_overflow", e, payload))

	got, ok, err := Load(db, "write_overflow", e)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, got)

	_, ok, err = Load(db, "write_overflow", Entry{Function: "g", Point: 1, Label: "x"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriteFileTruncatesByDefaultAndAppendsWhenRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	entries := []Entry{{Function: "f", Point: 1, Label: "a", Outcome: OutcomeSafe}}

	require.NoError(t, WriteFile(path, false, "write_overflow", entries))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, WriteFile(path, true, "write_overflow", entries))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(second) > len(first))

	require.NoError(t, WriteFile(path, false, "write_overflow", entries))
	third, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, len(first), len(third))
}

func TestDBNameMatchesCheckKindConvention(t *testing.T) {
	require.Equal(t, "report_write_overflow.xdb", DBName("write_overflow"))
}
