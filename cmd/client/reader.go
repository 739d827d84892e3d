package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ValentinKolb/kvrpc/cmd/util"
)

const (
	unrecognizedCommand = "Unrecognized Command. Enter 'help' for usage"
	usage               = `Usage:
put <key> <value>
get <key>
delete <key>`
)

var errUnrecognized = errors.New(unrecognizedCommand)

// KeyValueClient is the part of the RPC client the command reader drives
type KeyValueClient interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// command is a handler for one keyword together with the number of
// arguments it requires
type command struct {
	args int
	run  func(ctx context.Context, args []string) error
}

// scanResult is one line of input, or the end of it
type scanResult struct {
	line string
	eof  bool
	err  error
}

// CommandReader reads one command per line and sends it to a KeyValueClient.
// Keywords are case-insensitive, the number of arguments must match exactly.
type CommandReader struct {
	scanner  *bufio.Scanner
	commands map[string]command

	// lines is fed by a goroutine, so a blocked read does not delay cancellation
	startOnce sync.Once
	lines     chan scanResult
}

// NewCommandReader creates a reader for the commands put, get, delete and help
func NewCommandReader(c KeyValueClient, in io.Reader) *CommandReader {
	r := &CommandReader{
		scanner: bufio.NewScanner(in),
		lines:   make(chan scanResult),
	}
	r.commands = map[string]command{
		"put": {args: 2, run: func(ctx context.Context, args []string) error {
			return c.Put(ctx, args[0], args[1])
		}},
		"get": {args: 1, run: func(ctx context.Context, args []string) error {
			_, _, err := c.Get(ctx, args[0])
			return err
		}},
		"delete": {args: 1, run: func(ctx context.Context, args []string) error {
			_, err := c.Delete(ctx, args[0])
			return err
		}},
		"help": {args: 0, run: func(context.Context, []string) error {
			util.Logger.Infof("%s", usage)
			return nil
		}},
	}
	return r
}

// Run reads commands until a blank line, the end of the input or ctx is done.
// Failed calls do not end the session. When ctx is done, Run returns at once
// even if a read from the input is still blocked.
func (r *CommandReader) Run(ctx context.Context) error {
	for {
		more, err := r.ReadCommand(ctx)
		if !more {
			return err
		}
	}
}

// ReadCommand reads and executes a single line. It returns false once the
// session is over.
func (r *CommandReader) ReadCommand(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.startOnce.Do(func() { go r.scan(ctx) })

	var next scanResult
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case result, ok := <-r.lines:
		if !ok {
			result = scanResult{eof: true}
		}
		next = result
	}

	if next.eof {
		if next.err != nil {
			return false, next.err
		}
		util.Logger.Infof("End of input reached")
		return false, nil
	}

	fields := strings.Fields(next.line)
	if len(fields) == 0 {
		return false, nil
	}

	err := r.execute(ctx, fields)
	if errors.Is(err, errUnrecognized) {
		util.Logger.Errorf("%s", unrecognizedCommand)
	}
	// call errors are already logged by the RPC client
	return true, nil
}

// scan feeds the lines of the input to r.lines until the input ends or ctx is done
func (r *CommandReader) scan(ctx context.Context) {
	defer close(r.lines)
	for r.scanner.Scan() {
		select {
		case r.lines <- scanResult{line: r.scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	select {
	case r.lines <- scanResult{eof: true, err: r.scanner.Err()}:
	case <-ctx.Done():
	}
}

func (r *CommandReader) execute(ctx context.Context, fields []string) error {
	cmd, ok := r.commands[strings.ToLower(fields[0])]
	if !ok || len(fields)-1 != cmd.args {
		return errUnrecognized
	}
	return cmd.run(ctx, fields[1:])
}
