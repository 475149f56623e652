package datefilter

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"amfilter/internal/lineio"
	"amfilter/internal/logging"
	"amfilter/internal/types"

	"go.uber.org/zap"
)

// DefaultLayout is the output format of the most recent date
const DefaultLayout = "2006/01/02 15:04"

var (
	// ErrNoValidDates is returned when the input holds no acceptable record
	ErrNoValidDates = errors.New("no valid dates found in input")

	errMalformedDate = errors.New("incorrectly formatted date")
)

// Filter reads DD/MM/YYYY,HH:MM lines and reports the most recent one
type Filter struct {
	diag   io.Writer
	logger *zap.Logger
	now    func() time.Time
	layout string
}

// Option customises a Filter
type Option func(*Filter)

// WithClock sets the clock used for the current-year guard
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// WithLayout sets the output layout used by Format
func WithLayout(layout string) Option {
	return func(f *Filter) {
		f.layout = layout
	}
}

// New creates a filter writing rejection notices to diag
func New(diag io.Writer, logger *zap.Logger, opts ...Option) *Filter {
	f := &Filter{
		diag:   diag,
		logger: logging.OrNop(logger),
		now:    time.Now,
		layout: DefaultLayout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// ParseLine converts one input line into a timestamp.
// Records dated after currentYear are rejected.
func ParseLine(line string, currentYear int) (time.Time, error) {
	datePart, timePart, err := splitExact2(line, ",")
	if err != nil {
		return time.Time{}, err
	}

	dateFields := strings.Split(datePart, "/")
	if len(dateFields) != 3 {
		return time.Time{}, fmt.Errorf("%w: expected day/month/year, got %d fields", errMalformedDate, len(dateFields))
	}

	hourPart, minutePart, err := splitExact2(timePart, ":")
	if err != nil {
		return time.Time{}, err
	}

	values := make([]int, 0, 5)
	for _, field := range []string{dateFields[0], dateFields[1], dateFields[2], hourPart, minutePart} {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not an integer", errMalformedDate, field)
		}

		values = append(values, v)
	}

	day, month, year, hour, minute := values[0], values[1], values[2], values[3], values[4]

	if year > currentYear {
		return time.Time{}, fmt.Errorf("%w: year %d is after %d", errMalformedDate, year, currentYear)
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)

	// time.Date normalises out-of-range values, so compare them back
	if year < 1 || ts.Year() != year || int(ts.Month()) != month || ts.Day() != day ||
		ts.Hour() != hour || ts.Minute() != minute {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d is not a calendar time",
			errMalformedDate, year, month, day, hour, minute)
	}

	return ts, nil
}

func splitExact2(s, sep string) (string, string, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected 2 fields separated by %q, got %d", errMalformedDate, sep, len(parts))
	}

	return parts[0], parts[1], nil
}

// Collect parses every line of r, reporting and skipping rejected ones.
// Rejected lines are echoed as read, including any "\r".
func (f *Filter) Collect(r io.Reader) ([]types.DateRecord, error) {
	currentYear := f.now().Year()

	var (
		records []types.DateRecord
		lines   int
	)

	err := lineio.ForEach(r, func(line string, lineNum int) error {
		lines = lineNum

		ts, err := ParseLine(line, currentYear)
		if err != nil {
			f.logger.Debug("Rejected date record", zap.Int("line", lineNum), zap.Error(err))

			_, err = fmt.Fprintf(f.diag, "ignoring incorrectly formatted date: %s\n", line)

			return err
		}

		records = append(records, types.DateRecord{Raw: line, Timestamp: ts})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read date input: %w", err)
	}

	f.logger.Info("Date input consumed", zap.Int("lines", lines), zap.Int("accepted", len(records)))

	return records, nil
}

// MostRecent returns the latest record of r
func (f *Filter) MostRecent(r io.Reader) (types.DateRecord, error) {
	records, err := f.Collect(r)
	if err != nil {
		return types.DateRecord{}, err
	}

	if len(records) == 0 {
		return types.DateRecord{}, ErrNoValidDates
	}

	return slices.MaxFunc(records, func(a, b types.DateRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	}), nil
}

// Format renders a timestamp using the configured layout
func (f *Filter) Format(ts time.Time) string {
	return ts.Format(f.layout)
}

// Run writes the most recent date of r to out as a single line
func (f *Filter) Run(r io.Reader, out io.Writer) error {
	latest, err := f.MostRecent(r)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, f.Format(latest.Timestamp))

	return err
}
