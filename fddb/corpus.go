package fddb

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/logger"
)

// DefaultPattern matches the ellipse annotation files of an FDDB-folds
// directory, e.g. FDDB-fold-01-ellipseList.txt.
const DefaultPattern = "*ellipseList*"

// Corpus walks a dataset directory tree for annotation files and turns them
// into records. It holds no state between calls.
type Corpus struct {
	Dir     string
	Pattern string
	Log     logger.Logger
}

func (c *Corpus) log() logger.Logger {
	if c.Log == nil {
		return logger.NopLogger
	}
	return c.Log
}

func (c *Corpus) pattern() string {
	if c.Pattern == "" {
		return DefaultPattern
	}
	return c.Pattern
}

// Files returns the sorted list of annotation files under the corpus
// directory whose base name matches the pattern.
func (c *Corpus) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, merr := filepath.Match(c.pattern(), d.Name())
		if merr != nil {
			return merr
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", c.Dir)
	}
	sort.Strings(files)
	return files, nil
}

// ReadLines reads one annotation file into trimmed lines. Blank lines are
// dropped; some fold files end with one, and it would otherwise be grouped
// as a face line.
func ReadLines(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return lines, nil
}

// Records parses every matching annotation file into one flat, ordered
// record sequence. Records with a count/faces disagreement are logged and
// kept.
func (c *Corpus) Records() ([]Record, error) {
	files, err := c.Files()
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, name := range files {
		c.log().Printf("processFile: %s", name)
		lines, err := ReadLines(name)
		if err != nil {
			return nil, err
		}
		recs, err := ParseLines(lines)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		for _, rec := range recs {
			if rec.Mismatched() {
				c.log().Warnf("%s: declared %d face(s) but parsed %d", rec.ImageName, rec.NumFaces, len(rec.Faces))
			}
		}
		records = append(records, recs...)
	}
	return records, nil
}
