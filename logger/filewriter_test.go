package logger

import (
	"os"
	"path/filepath"
	"testing"
)

// TestReopenAppend -- make sure we always append to an existing file
//
//  1. Create a sample file using normal means
//  2. Open a FileWriter, write line 1
//  3. call Reopen, write line 2
//  4. close file
//  5. read file, make sure it contains line0,line1,line2
func TestReopenAppend(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "reopen.log")

	err := os.WriteFile(fname, []byte("line0\n"), 0600)
	if err != nil {
		t.Fatalf("unable to create initial file: %v", err)
	}

	// Test that making a new File appends
	f, err := NewFileWriter(fname)
	if err != nil {
		t.Fatalf("Unable to create %s", fname)
	}
	_, err = f.Write([]byte("line1\n"))
	if err != nil {
		t.Errorf("Got write error1: %s", err)
	}

	// Test that reopen always appends
	err = f.Reopen()
	if err != nil {
		t.Errorf("Got reopen error %s: %s", fname, err)
	}
	_, err = f.Write([]byte("line2\n"))
	if err != nil {
		t.Errorf("Got write error2 on %s: %s", fname, err)
	}
	err = f.Close()
	if err != nil {
		t.Errorf("Got closing error for %s: %s", fname, err)
	}

	out, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("Unable read in final file %s: %s", fname, err)
	}

	outstr := string(out)
	if outstr != "line0\nline1\nline2\n" {
		t.Errorf("Result file not correct: %s", outstr)
	}
}
