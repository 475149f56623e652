package unpacker

import (
	"fmt"
	"io"
	"strings"

	"amfilter/internal/config"
	"amfilter/internal/lineio"
	"amfilter/internal/logging"
	"amfilter/internal/types"
	"amfilter/internal/unpacker/strategy"

	"go.uber.org/zap"
)

// SelectionStrategy decides which ordered candidates are attempted
type SelectionStrategy interface {
	Select(candidates []types.FileCandidate, attempt strategy.Attempt) bool
}

// CreateSelectionStrategy is factory function to create selection strategies
func CreateSelectionStrategy(strategyName string) (SelectionStrategy, error) {
	switch strategyName {
	case config.StrategyTopOnly:
		return &strategy.TopOnlyStrategy{}, nil
	case config.StrategyFirstMatch:
		return &strategy.FirstMatchStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown selection strategy: %s", strategyName)
	}
}

// Stats summarises one run
type Stats struct {
	Records  int
	Rows     int
	NotFound int
	Skipped  int
}

// Unpacker turns serialised query-tool records into tab-delimited rows
type Unpacker struct {
	config   config.MediaConfig
	strategy SelectionStrategy
	oracle   Oracle
	out      io.Writer
	diag     io.Writer
	logger   *zap.Logger
	stats    Stats
}

// New creates an unpacker. Rows go to out, not-found and skip notices to diag.
func New(cfg config.MediaConfig, oracle Oracle, out, diag io.Writer, logger *zap.Logger) (*Unpacker, error) {
	selection, err := CreateSelectionStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	if oracle == nil {
		oracle = FileSystemOracle{}
	}

	return &Unpacker{
		config:   cfg,
		strategy: selection,
		oracle:   oracle,
		out:      out,
		diag:     diag,
		logger:   logging.OrNop(logger),
	}, nil
}

// Stats returns the counters accumulated so far
func (u *Unpacker) Stats() Stats {
	return u.stats
}

// Process reads records from r until EOF. Lines have no length limit.
// A malformed record stops the run unless SkipMalformed is set.
func (u *Unpacker) Process(r io.Reader) error {
	err := lineio.ForEach(r, u.processLine)
	if err != nil {
		return err
	}

	u.logger.Info("Record input consumed",
		zap.Int("records", u.stats.Records),
		zap.Int("rows", u.stats.Rows),
		zap.Int("not_found", u.stats.NotFound),
		zap.Int("skipped", u.stats.Skipped))

	return nil
}

func (u *Unpacker) processLine(line string, lineNum int) error {
	u.stats.Records++

	row, err := u.ProcessRecord(line)
	if err != nil {
		if !u.config.SkipMalformed {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		u.stats.Skipped++

		_, err = fmt.Fprintf(u.diag, "skipping malformed record at line %d: %v\n", lineNum, err)

		return err
	}

	if row == nil {
		return nil
	}

	_, err = fmt.Fprintln(u.out, row.String())
	if err != nil {
		return err
	}

	u.stats.Rows++

	return nil
}

// ProcessRecord parses one line and returns its output row, or nil when no
// candidate of the record qualifies and resolves.
func (u *Unpacker) ProcessRecord(line string) (*types.OutputRow, error) {
	record, err := ParseRecord(line)
	if err != nil {
		return nil, err
	}

	var (
		row      *types.OutputRow
		writeErr error
	)

	u.strategy.Select(record.Candidates(), func(candidate types.FileCandidate) bool {
		if !u.Qualifies(candidate) {
			u.logger.Debug("Candidate rejected",
				zap.String("id", record.ID),
				zap.String("file", candidate.FileName),
				zap.String("format", candidate.Format),
				zap.Int64("size", candidate.Size))

			return false
		}

		row, writeErr = u.resolve(record, candidate)

		return row != nil || writeErr != nil
	})

	if writeErr != nil {
		return nil, writeErr
	}

	return row, nil
}

// Qualifies reports whether the candidate's format and size are acceptable
func (u *Unpacker) Qualifies(candidate types.FileCandidate) bool {
	if candidate.Size < u.config.MinSize || candidate.Size > u.config.MaxSize {
		return false
	}

	for _, format := range u.config.Formats {
		if strings.EqualFold(candidate.Format, format) {
			return true
		}
	}

	return false
}

// resolve locates the candidate under the media root, retrying with a
// lower-case "jpg" when the verbatim name is missing
func (u *Unpacker) resolve(record *types.InputRecord, candidate types.FileCandidate) (*types.OutputRow, error) {
	fileName := candidate.FileName
	absPath := strings.Join([]string{u.config.MediaRoot, record.Subdirectory, fileName}, "/")
	relPath := strings.Join([]string{u.config.RelativeRoot, record.Subdirectory, fileName}, "/")

	if !u.oracle.Exists(absPath) {
		lowered := strings.ReplaceAll(absPath, "JPG", "jpg")
		if lowered == absPath || !u.oracle.Exists(lowered) {
			u.stats.NotFound++

			_, err := fmt.Fprintf(u.diag, "%s not found\n", lowered)

			return nil, err
		}

		absPath = lowered
		fileName = strings.ReplaceAll(fileName, "JPG", "jpg")
		relPath = strings.ReplaceAll(relPath, "JPG", "jpg")
	}

	u.logger.Debug("Candidate resolved", zap.String("id", record.ID), zap.String("path", absPath))

	return &types.OutputRow{
		ID:           record.ID,
		Creators:     record.CreatorsRaw,
		Publisher:    record.Publisher,
		PrimaryPath:  record.PrimaryPath,
		FileName:     fileName,
		Format:       candidate.Format,
		Size:         candidate.Size,
		RelativePath: relPath,
	}, nil
}
