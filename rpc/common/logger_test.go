package common

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

// newTestLogger creates a logger writing to buf
func newTestLogger(t *testing.T, name string, buf *bytes.Buffer) logger.ILogger {
	t.Helper()
	SetLogOutput(buf)
	t.Cleanup(func() { SetLogOutput(os.Stdout) })
	return CreateLogger(name)
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, "client", &buf)

	l.Infof("[call 3] Sending %s", "GetRequest")
	l.Debugf("hidden at the default level")

	line := strings.TrimSpace(buf.String())
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}(Z|[+-]\d{2}:\d{2}) : client\s+ : INFO  : \[call 3\] Sending GetRequest$`)
	if !pattern.MatchString(line) {
		t.Errorf("unexpected log line %q", line)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, "rpc", &buf)

	l.SetLevel(logger.ERROR)
	l.Infof("info")
	l.Warningf("warn")
	l.Errorf("error")

	if out := buf.String(); strings.Contains(out, "info") || strings.Contains(out, "warn") || !strings.Contains(out, "error") {
		t.Errorf("unexpected output at level error:\n%s", out)
	}
}

func TestLoggerSetLevelWhileLogging(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, "rpc", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Debugf("debug %d", j)
			}
		}()
	}
	for _, level := range []logger.LogLevel{logger.DEBUG, logger.ERROR, logger.INFO} {
		l.SetLevel(level)
	}
	wg.Wait()
}

func TestLoggerKeepsPercentInArguments(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, "server", &buf)

	l.Infof("%s", "endpoint=/tmp/kv%d.sock")

	if out := buf.String(); !strings.Contains(out, "endpoint=/tmp/kv%d.sock") {
		t.Errorf("argument was not logged verbatim:\n%s", out)
	}
}
