package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"amfilter/internal/apperr"
	"amfilter/internal/config"
	"amfilter/internal/logging"
	"amfilter/internal/unpacker"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// GlobalOptions apply to every command
type GlobalOptions struct {
	Config  string `short:"c" long:"config" env:"AMFILTER_CONFIG" description:"TOML file overriding the built-in configuration"`
	Verbose bool   `short:"v" long:"verbose" env:"AMFILTER_VERBOSE" description:"Log progress as JSON to stderr"`
}

type app struct {
	opts   GlobalOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	oracle unpacker.Oracle
	now    func() time.Time
}

func main() {
	out := bufio.NewWriter(os.Stdout)

	code := run(os.Args[1:], os.Stdin, out, os.Stderr)
	if err := out.Flush(); err != nil && code == 0 {
		code = 1
	}

	os.Exit(code)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).run(args)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		oracle: unpacker.FileSystemOracle{},
		now:    time.Now,
	}
}

func (a *app) run(args []string) int {
	parser, err := a.newParser()
	if err != nil {
		return apperr.WriteError(a.stderr, err)
	}

	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(a.stdout, flagsErr.Message)
			return 0
		}

		return apperr.WriteError(a.stderr, err)
	}

	return 0
}

func (a *app) newParser() (*flags.Parser, error) {
	parser := flags.NewParser(&a.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "amfilter"
	parser.ShortDescription = "Filters for museum collection exports"

	_, err := parser.AddCommand("latest-date",
		"Print the most recent date read from stdin",
		"Reads DD/MM/YYYY,HH:MM lines from stdin and prints the most recent one as YYYY/MM/DD HH:MM.\n"+
			"Unparseable lines and dates after the current year are reported on stderr and ignored.",
		&latestDateCommand{app: a})
	if err != nil {
		return nil, err
	}

	_, err = parser.AddCommand("unpack-media",
		"Unpack texql multimedia records into tab-separated rows",
		"Reads one serialised multimedia record per line from stdin and prints, for each record whose\n"+
			"selected rendition qualifies and exists under the media root, one tab-separated row.\n"+
			"Missing files are reported on stderr.",
		&unpackMediaCommand{app: a})
	if err != nil {
		return nil, err
	}

	return parser, nil
}

func (a *app) logger() *zap.Logger {
	return logging.New(a.stderr, a.opts.Verbose)
}

func (a *app) loadConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(a.opts.Config)
	if err != nil {
		return nil, err
	}

	source := a.opts.Config
	if source == "" {
		source = "built-in defaults"
	}

	logger.Debug("Configuration loaded", zap.String("source", source))

	return cfg, nil
}

func noArguments(command string, args []string) error {
	if len(args) == 0 {
		return nil
	}

	return &flags.Error{
		Type:    flags.ErrUnknown,
		Message: fmt.Sprintf("%s takes no arguments, got %q", command, args),
	}
}
