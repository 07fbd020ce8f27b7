// Package fddb parses FDDB ellipse annotation files into per-image records
// suitable for loading into a key-value store.
//
// An annotation file is a flat sequence of lines. A line containing a path
// separator past position zero names an image and starts a new group; the
// line after it carries the face count, and the remaining lines of the group
// each carry one face ellipse.
package fddb

import (
	"strconv"
	"strings"

	"github.com/facetdata/fddb-ingest/errors"
)

// Partition values for Record.TrainSet. The store uses them as the numeric
// partition key, so they are ints rather than a bool.
const (
	Test  = 0
	Train = 1
)

// Record is one image's aggregated face annotations.
type Record struct {
	ImageName string   `json:"image_name" dynamodbav:"image_name"`
	NumFaces  int      `json:"num_faces" dynamodbav:"num_faces"`
	Faces     []string `json:"faces" dynamodbav:"faces"`
	TrainSet  int      `json:"train_set" dynamodbav:"train_set"`
}

// Mismatched reports whether the declared face count disagrees with the
// number of face lines actually parsed. Known FDDB folds occasionally
// disagree; callers log it rather than reject the record.
func (r Record) Mismatched() bool {
	return r.NumFaces != len(r.Faces)
}

// isBoundary reports whether a line opens a new annotation group. Image
// names are relative paths like "2002/08/11/big/img_591", so a separator
// past position zero is the marker.
func isBoundary(line string) bool {
	return strings.Index(line, "/") > 0
}

// GroupLines splits a flat sequence of annotation lines into groups, one per
// image. The first line always opens the first group; every later boundary
// line closes the current group and opens the next, so no group is ever
// empty and concatenating the groups reproduces the input exactly.
func GroupLines(lines []string) [][]string {
	var groups [][]string
	var group []string
	for _, line := range lines {
		if isBoundary(line) && len(group) > 0 {
			groups = append(groups, group)
			group = []string{line}
		} else {
			group = append(group, line)
		}
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}
	return groups
}

// ParseGroup builds a Record from one group of lines shaped as
// [image_name, face_count, face...]. The partition defaults to Train; Split
// reassigns it. The declared count is kept even when it disagrees with the
// number of face lines (see Record.Mismatched).
func ParseGroup(group []string) (Record, error) {
	if len(group) < 2 {
		return Record{}, errors.New(errors.ErrGroupMalformed,
			"annotation group needs an image name and a face count, got "+strconv.Itoa(len(group))+" line(s)")
	}
	count, err := strconv.Atoi(strings.TrimSpace(group[1]))
	if err != nil {
		return Record{}, errors.New(errors.ErrGroupMalformed,
			"face count "+strconv.Quote(group[1])+" for "+group[0]+" is not an integer")
	}
	faces := make([]string, len(group)-2)
	copy(faces, group[2:])
	return Record{
		ImageName: group[0],
		NumFaces:  count,
		Faces:     faces,
		TrainSet:  Train,
	}, nil
}

// ParseLines groups a file's worth of lines and parses every group.
func ParseLines(lines []string) ([]Record, error) {
	groups := GroupLines(lines)
	records := make([]Record, 0, len(groups))
	for _, group := range groups {
		rec, err := ParseGroup(group)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// CheckUniqueNames returns an ErrDuplicateImageName error naming the first
// image that appears in more than one record. The store's composite key only
// guards (partition, name) pairs, so a duplicate name split across the two
// partitions would otherwise slip through; callers run this before any
// write.
func CheckUniqueNames(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ImageName]; ok {
			return errors.New(errors.ErrDuplicateImageName,
				"duplicate image name: "+rec.ImageName)
		}
		seen[rec.ImageName] = struct{}{}
	}
	return nil
}
