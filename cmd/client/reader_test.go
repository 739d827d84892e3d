package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingClient records every call it receives
type recordingClient struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (r *recordingClient) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if r.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (r *recordingClient) Put(_ context.Context, key, value string) error {
	return r.record("put " + key + " " + value)
}

func (r *recordingClient) Get(_ context.Context, key string) (string, bool, error) {
	return "", false, r.record("get " + key)
}

func (r *recordingClient) Delete(_ context.Context, key string) (bool, error) {
	return false, r.record("delete " + key)
}

func TestCommandReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"put", "put A B\n", []string{"put A B"}},
		{"get", "get A\n", []string{"get A"}},
		{"delete", "delete A\n", []string{"delete A"}},
		{"case insensitive", "PUT A B\nGeT A\nDelete A\n", []string{"put A B", "get A", "delete A"}},
		{"extra whitespace", "  put   A   B  \n", []string{"put A B"}},
		{"too many arguments", "get A B\nput A\nput A B C\ndelete\n", nil},
		{"unknown command", "remove A\nhelp\nhelp me\n", nil},
		{"blank line ends session", "put A B\n\nget A\n", []string{"put A B"}},
		{"whitespace line ends session", "put A B\n   \nget A\n", []string{"put A B"}},
		{"end of input without newline", "get A", []string{"get A"}},
		{"empty input", "", nil},
		{"values are case sensitive", "put Key Value\n", []string{"put Key Value"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &recordingClient{}
			reader := NewCommandReader(c, strings.NewReader(tc.input))
			if err := reader.Run(context.Background()); err != nil {
				t.Fatalf("run: %v", err)
			}
			if strings.Join(c.calls, "|") != strings.Join(tc.want, "|") {
				t.Errorf("calls = %q, want %q", c.calls, tc.want)
			}
		})
	}
}

func TestCommandReaderContinuesAfterFailedCall(t *testing.T) {
	c := &recordingClient{fail: true}
	reader := NewCommandReader(c, strings.NewReader("put A B\nget A\n"))
	if err := reader.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(c.calls) != 2 {
		t.Errorf("expected both calls to be sent, got %q", c.calls)
	}
}

func TestCommandReaderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &recordingClient{}
	reader := NewCommandReader(c, strings.NewReader("put A B\n"))
	if err := reader.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(c.calls) != 0 {
		t.Errorf("no call expected after cancel, got %q", c.calls)
	}
}

func TestCommandReaderCancelWhileReading(t *testing.T) {
	// the input never delivers a line, like an idle terminal
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	reader := NewCommandReader(&recordingClient{}, in)

	done := make(chan error, 1)
	go func() { done <- reader.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel while the input was blocked")
	}
}

func TestReadCommand(t *testing.T) {
	c := &recordingClient{}
	reader := NewCommandReader(c, strings.NewReader("bogus\nget A\n"))

	for i, wantMore := range []bool{true, true, false} {
		more, err := reader.ReadCommand(context.Background())
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if more != wantMore {
			t.Errorf("line %d: more = %v, want %v", i, more, wantMore)
		}
	}
}

func TestRunDemo(t *testing.T) {
	c := &recordingClient{}
	runDemo(context.Background(), c)

	want := []string{
		"put Key0 Value0", "put Key1 Value1", "put Key2 Value2", "put Key3 Value3", "put Key4 Value4",
		"get Key0", "get Key1", "get Key2", "get Key3", "get Key4",
		"delete Key0", "delete Key1", "delete Key2", "delete Key3", "delete Key4",
	}
	if strings.Join(c.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q", c.calls)
	}
}
