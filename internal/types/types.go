package types

import (
	"strconv"
	"strings"
	"time"
)

// DateRecord is one accepted line of date input
type DateRecord struct {
	Raw       string
	Timestamp time.Time
}

// InputRecord represents one destructured catalogue record
type InputRecord struct {
	ID           string
	Formats      []string
	PrimaryPath  string
	Subdirectory string
	Creators     []string
	CreatorsRaw  string // bracketed text exactly as it appeared in the input
	Publisher    string
	FileNames    []string
	FileSizes    []int64
}

// FileCandidate is one rendition attached to a record
type FileCandidate struct {
	Size     int64
	Format   string
	FileName string
}

// Candidates zips the parallel format, filename and size lists
func (r InputRecord) Candidates() []FileCandidate {
	candidates := make([]FileCandidate, 0, len(r.FileSizes))
	for i := range r.FileSizes {
		candidates = append(candidates, FileCandidate{
			Size:     r.FileSizes[i],
			Format:   r.Formats[i],
			FileName: r.FileNames[i],
		})
	}

	return candidates
}

// OutputRow is the tab-delimited line emitted for a matched record
type OutputRow struct {
	ID           string
	Creators     string
	Publisher    string
	PrimaryPath  string
	FileName     string
	Format       string
	Size         int64
	RelativePath string
}

// Fields returns the row values in output column order
func (r OutputRow) Fields() []string {
	return []string{
		r.ID,
		r.Creators,
		r.Publisher,
		r.PrimaryPath,
		r.FileName,
		r.Format,
		strconv.FormatInt(r.Size, 10),
		r.RelativePath,
	}
}

func (r OutputRow) String() string {
	return strings.Join(r.Fields(), "\t")
}
