package report

import "os"

// WriteFile implements xcheck's `-xml-out=<f> [-append]` pair (spec.md
// §6): append opens with O_APPEND, otherwise the file is truncated.
func WriteFile(path string, appendMode bool, checkKind string, entries []Entry) error {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteXML(f, checkKind, entries)
}
