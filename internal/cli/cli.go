// Package cli is the interactive terminal client: topic browsing, study guides, quizzes and collections.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/examprep/examprep/internal/bootstrap"
)

// errEnd ends a Run loop without an error.
var errEnd = errors.New("end of session")

// InteractiveCLI holds the terminal I/O shared by the interactive sessions.
type InteractiveCLI struct {
	services     *bootstrap.Services
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	location     *time.Location

	bold   *color.Color
	italic *color.Color
	faint  *color.Color
	green  *color.Color
	red    *color.Color

	linesOnce sync.Once
	lines     chan string
}

func NewInteractiveCLI(services *bootstrap.Services, in io.Reader, out io.Writer) *InteractiveCLI {
	return &InteractiveCLI{
		services:     services,
		stdinReader:  bufio.NewReader(in),
		stdoutWriter: out,
		location:     time.Local,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		faint:        color.New(color.Faint),
		green:        color.New(color.FgGreen, color.Bold),
		red:          color.New(color.FgRed, color.Bold),
	}
}

// WithLocation sets the time zone dates are printed in.
func (cli *InteractiveCLI) WithLocation(location *time.Location) *InteractiveCLI {
	cli.location = location
	return cli
}

//go:generate mockgen -source=cli.go -destination=../mocks/cli/mock_session.go -package=mock_cli Session

// Session is one interactive screen. Run calls Session until it returns an error.
type Session interface {
	Session(ctx context.Context) error
}

// Run repeats session until it ends, fails, or ctx is cancelled.
func (cli *InteractiveCLI) Run(ctx context.Context, session Session) error {
	for {
		select {
		case <-ctx.Done():
			cli.println("Exiting...")
			return nil
		default:
		}

		if err := session.Session(ctx); err != nil {
			if errors.Is(err, errEnd) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("session.Session() > %w", err)
		}
	}
}

// input returns the lines typed by the user. The channel is closed at the end of input.
func (cli *InteractiveCLI) input() <-chan string {
	cli.linesOnce.Do(func() {
		cli.lines = make(chan string)
		go func() {
			defer close(cli.lines)
			for {
				line, err := cli.stdinReader.ReadString('\n')
				if line != "" || err == nil {
					cli.lines <- strings.TrimSpace(line)
				}
				if err != nil {
					return
				}
			}
		}()
	})
	return cli.lines
}

// prompt prints label and waits for the next line. The end of input ends the session.
func (cli *InteractiveCLI) prompt(ctx context.Context, label string) (string, error) {
	cli.print(cli.bold.Sprint(label) + " ")
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-cli.input():
		if !ok {
			cli.println()
			return "", errEnd
		}
		return line, nil
	}
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (cli *InteractiveCLI) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := cli.prompt(ctx, question+" (y/N):")
	if errors.Is(err, errEnd) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (cli *InteractiveCLI) print(a ...any) {
	_, _ = fmt.Fprint(cli.stdoutWriter, a...)
}

func (cli *InteractiveCLI) println(a ...any) {
	_, _ = fmt.Fprintln(cli.stdoutWriter, a...)
}

func (cli *InteractiveCLI) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(cli.stdoutWriter, format, a...)
}
