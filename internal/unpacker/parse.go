package unpacker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"amfilter/internal/types"
)

// ErrMalformedRecord marks an input line that does not have the tuple shape
var ErrMalformedRecord = errors.New("malformed record")

// Delimiters between consecutive fields of a serialised tuple, in order
const (
	delimIDFormats        = "),["
	delimFormatsPath      = "],'"
	delimPathCreators     = "',['"
	delimCreatorsPub      = "'],'"
	delimPubFileNames     = "',["
	delimFileNamesSizes   = "],"
	listSeparator         = "'|'"
	sizeSeparator         = "|"
	recordPrefix          = "(("
	recordSuffix          = ")"
	creatorsRawOpen       = "['"
	creatorsRawClose      = "']"
	recordBodyFinalMarker = "]"
)

// peel splits rest at the first occurrence of delim
func peel(rest, delim, field string) (string, string, error) {
	head, tail, found := strings.Cut(rest, delim)
	if !found {
		return "", "", fmt.Errorf("%w: missing %q after %s", ErrMalformedRecord, delim, field)
	}

	return head, tail, nil
}

// splitQuotedList drops the first and last character and splits on '|'
func splitQuotedList(s string) []string {
	if len(s) < 2 {
		s = ""
	} else {
		s = s[1 : len(s)-1]
	}

	return strings.Split(s, listSeparator)
}

// ParseRecord destructures one line of query-tool output, e.g.
//
//	((1005442),['jpeg'|'jpeg'],'1005/442/X.jpg',['Della Ross'],'Della Ross',['X.jpg'|'X.200x200.jpg'],[164087|12094])
func ParseRecord(line string) (*types.InputRecord, error) {
	line = strings.Trim(line, "\n")

	if !strings.HasPrefix(line, recordPrefix) || !strings.HasSuffix(line, recordSuffix) || len(line) < len(recordPrefix)+len(recordSuffix) {
		return nil, fmt.Errorf("%w: line must start with %q and end with %q", ErrMalformedRecord, recordPrefix, recordSuffix)
	}

	body := line[len(recordPrefix) : len(line)-len(recordSuffix)]
	if !strings.HasSuffix(body, recordBodyFinalMarker) {
		return nil, fmt.Errorf("%w: size list is not closed with %q", ErrMalformedRecord, recordBodyFinalMarker)
	}

	id, rest, err := peel(body, delimIDFormats, "id")
	if err != nil {
		return nil, err
	}

	formats, rest, err := peel(rest, delimFormatsPath, "format list")
	if err != nil {
		return nil, err
	}

	primaryPath, rest, err := peel(rest, delimPathCreators, "primary path")
	if err != nil {
		return nil, err
	}

	creators, rest, err := peel(rest, delimCreatorsPub, "creator list")
	if err != nil {
		return nil, err
	}

	publisher, rest, err := peel(rest, delimPubFileNames, "publisher")
	if err != nil {
		return nil, err
	}

	fileNames, rest, err := peel(rest, delimFileNamesSizes, "file name list")
	if err != nil {
		return nil, err
	}

	sizes, err := parseSizes(rest)
	if err != nil {
		return nil, err
	}

	record := &types.InputRecord{
		ID:           id,
		Formats:      splitQuotedList(formats),
		PrimaryPath:  primaryPath,
		Subdirectory: subdirectory(primaryPath),
		Creators:     strings.Split(creators, listSeparator),
		CreatorsRaw:  creatorsRawOpen + creators + creatorsRawClose,
		Publisher:    publisher,
		FileNames:    strings.Split(strings.Trim(fileNames, "'"), listSeparator),
		FileSizes:    sizes,
	}

	if len(record.Formats) != len(record.FileNames) || len(record.Formats) != len(record.FileSizes) {
		return nil, fmt.Errorf("%w: %d formats, %d file names and %d sizes",
			ErrMalformedRecord, len(record.Formats), len(record.FileNames), len(record.FileSizes))
	}

	return record, nil
}

func parseSizes(s string) ([]int64, error) {
	s = strings.Trim(strings.Trim(s, "["), "]")

	pieces := strings.Split(s, sizeSeparator)
	sizes := make([]int64, 0, len(pieces))

	for _, piece := range pieces {
		size, err := strconv.ParseInt(strings.TrimSpace(piece), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: file size %q is not an integer", ErrMalformedRecord, piece)
		}

		sizes = append(sizes, size)
	}

	return sizes, nil
}

// subdirectory drops the last segment of a slash separated path
func subdirectory(path string) string {
	segments := strings.Split(path, "/")

	return strings.Join(segments[:len(segments)-1], "/")
}
