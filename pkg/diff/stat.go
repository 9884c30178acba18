package diff

import "strings"

// FileStat counts the changed lines of one record. Binary records have no
// line counts.
type FileStat struct {
	Path       string
	Kind       ChangeKind
	Insertions int
	Deletions  int
	Binary     bool
}

// Stats summarises a diff.
type Stats struct {
	Files      []FileStat
	Insertions int
	Deletions  int
}

// FilesChanged is the number of records summarised.
func (s Stats) FilesChanged() int {
	return len(s.Files)
}

// Stat counts inserted and deleted lines in each record's patch.
func Stat(records []Record) Stats {
	var s Stats
	for _, r := range records {
		fs := FileStat{Path: r.Path, Kind: r.Kind, Binary: r.Binary}
		if !r.Binary {
			fs.Insertions, fs.Deletions = countPatchLines(r.Patch)
		}
		s.Insertions += fs.Insertions
		s.Deletions += fs.Deletions
		s.Files = append(s.Files, fs)
	}
	return s
}

// countPatchLines counts "+" and "-" lines inside hunks. The "---"/"+++"
// file headers come before the first "@@" and are not counted.
func countPatchLines(patch string) (insertions, deletions int) {
	inHunk := false
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			continue
		}
		if !inHunk || line == "" {
			continue
		}
		switch line[0] {
		case '+':
			insertions++
		case '-':
			deletions++
		}
	}
	return insertions, deletions
}
