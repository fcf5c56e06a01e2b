package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects output to a buffer at INFO/text and restores
// stdout afterwards.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	SetFormat("text")
	SetLevel("INFO")
	SetOutput(buf, false)
	t.Cleanup(func() {
		SetFormat("text")
		SetLevel("INFO")
		SetOutput(os.Stdout, false)
	})
	return buf
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{" Warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"ERROR", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAll", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("DEBUG")

		Debug("d")
		Info("i")
		Warn("w")
		Error("e")

		out := buf.String()
		for _, lvl := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
			assert.Contains(t, out, lvl)
		}
	})

	t.Run("WarnLevelDropsDebugAndInfo", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("WARN")

		Debug("d")
		Info("i")
		Warn("w")
		Error("e")

		out := buf.String()
		assert.NotContains(t, out, "DEBUG")
		assert.NotContains(t, out, "INFO")
		assert.Contains(t, out, "WARN")
		assert.Contains(t, out, "ERROR")
	})

	t.Run("ErrorAlwaysAtErrorLevel", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("ERROR")

		Warn("hidden")
		Error("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestSetLevel(t *testing.T) {
	t.Run("AppliesWithoutRebuild", func(t *testing.T) {
		buf := captureOutput(t)

		Debug("before")
		SetLevel("debug")
		Debug("after")

		assert.NotContains(t, buf.String(), "before")
		assert.Contains(t, buf.String(), "after")
		assert.Equal(t, slog.LevelDebug, Level())
	})

	t.Run("IgnoresUnknownNames", func(t *testing.T) {
		captureOutput(t)
		SetLevel("WARN")
		SetLevel("LOUD")

		assert.Equal(t, slog.LevelWarn, Level())
	})
}

func TestTextFormat(t *testing.T) {
	t.Run("LineLayout", func(t *testing.T) {
		buf := captureOutput(t)

		Info("session finalized", KeyUserID, 7, KeyChannel, "reply")

		line := strings.TrimSpace(buf.String())
		assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} INFO  session finalized`), line)
		assert.True(t, strings.HasSuffix(line, "user_id=7 channel=reply"), line)
	})

	t.Run("QuotesAmbiguousValues", func(t *testing.T) {
		buf := captureOutput(t)

		Info("m", "a", "two words", "b", "k=v", "c", "")

		out := buf.String()
		assert.Contains(t, out, `a="two words"`)
		assert.Contains(t, out, `b="k=v"`)
		assert.Contains(t, out, `c=""`)
	})

	t.Run("RendersErrorsAndDurations", func(t *testing.T) {
		buf := captureOutput(t)

		Warn("m", KeyError, assert.AnError, KeyTimeout, 1500000000)
		Info("m", slog.Duration(KeyInterval, 0))

		out := buf.String()
		assert.Contains(t, out, "error=")
		assert.Contains(t, out, "assert.AnError")
		assert.Contains(t, out, "interval=0s")
	})

	t.Run("GroupsBecomePrefixes", func(t *testing.T) {
		buf := captureOutput(t)

		l := With("instance_id", "abc").WithGroup("pool")
		l.Info("stats", "idle", 3, slog.Group("limits", "size", 8))

		out := buf.String()
		assert.Contains(t, out, " instance_id=abc")
		assert.Contains(t, out, " pool.idle=3")
		assert.Contains(t, out, " pool.limits.size=8")
	})

	t.Run("EmptyAttrSkipped", func(t *testing.T) {
		buf := captureOutput(t)

		Info("ok", Err(nil))

		assert.NotContains(t, buf.String(), "error=")
	})

	t.Run("ColorWrapsLevelAndKeys", func(t *testing.T) {
		buf := new(bytes.Buffer)
		h := newTextHandler(buf, nil, true)
		slog.New(h).Error("boom", KeyError, "x")

		out := buf.String()
		assert.Contains(t, out, colorRed+"ERROR"+colorReset)
		assert.Contains(t, out, colorRed+"error"+colorReset+"=x")
	})
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("json")

	Info("hello", KeySessionID, 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, float64(42), entry["session_id"])
	assert.Contains(t, entry, "time")
}

func TestSetFormatIgnoresUnknown(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("xml")

	Info("still text")

	assert.False(t, json.Valid(buf.Bytes()))
	assert.Contains(t, buf.String(), "still text")
}

func TestContextLogging(t *testing.T) {
	t.Run("FieldsPrependedInOrder", func(t *testing.T) {
		buf := captureOutput(t)

		lc := &LogContext{TraceID: "t1", RequestID: "r1", UserID: 3, SessionID: 9}
		InfoCtx(WithContext(context.Background(), lc), "m", KeyCount, 2)

		out := buf.String()
		trace := strings.Index(out, "trace_id=t1")
		req := strings.Index(out, "request_id=r1")
		user := strings.Index(out, "user_id=3")
		sess := strings.Index(out, "session_id=9")
		count := strings.Index(out, "count=2")

		require.True(t, trace > 0 && req > 0 && user > 0 && sess > 0 && count > 0, out)
		assert.Less(t, trace, req)
		assert.Less(t, user, sess)
		assert.Less(t, sess, count)
	})

	t.Run("ZeroFieldsOmitted", func(t *testing.T) {
		buf := captureOutput(t)

		WarnCtx(WithContext(context.Background(), &LogContext{UserID: 1}), "m")

		out := buf.String()
		assert.Contains(t, out, "user_id=1")
		assert.NotContains(t, out, "session_id")
		assert.NotContains(t, out, "trace_id")
	})

	t.Run("NilAndBareContexts", func(t *testing.T) {
		buf := captureOutput(t)

		//nolint:staticcheck // nil context is tolerated
		require.NotPanics(t, func() { InfoCtx(nil, "nil ctx") })
		ErrorCtx(context.Background(), "bare ctx")

		assert.Contains(t, buf.String(), "nil ctx")
		assert.Contains(t, buf.String(), "bare ctx")
	})

	t.Run("JSONCarriesContext", func(t *testing.T) {
		buf := captureOutput(t)
		SetFormat("json")

		InfoCtx(WithContext(context.Background(), &LogContext{Operation: "sweep"}), "m")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "sweep", entry[KeyOperation])
	})
}

func TestLogContext(t *testing.T) {
	t.Run("CopiesAreIndependent", func(t *testing.T) {
		lc := NewLogContext("10.0.0.1")
		bound := lc.WithSession(5, 9).WithOperation("clear").WithTrace("t", "s")

		assert.Equal(t, int64(5), bound.UserID)
		assert.Equal(t, int64(9), bound.SessionID)
		assert.Equal(t, "clear", bound.Operation)
		assert.Equal(t, "t", bound.TraceID)
		assert.Zero(t, lc.UserID)
		assert.Empty(t, lc.Operation)
	})

	t.Run("NilReceiver", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithSession(1, 1))
		assert.Nil(t, lc.Attrs())
		assert.Zero(t, lc.Elapsed())
	})

	t.Run("FromContext", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
		lc := NewLogContext("::1")
		assert.Same(t, lc, FromContext(WithContext(context.Background(), lc)))
	})

	t.Run("Elapsed", func(t *testing.T) {
		assert.GreaterOrEqual(t, NewLogContext("").Elapsed().Nanoseconds(), int64(0))
	})
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, KeyUserID, UserID(4).Key)
	assert.Equal(t, int64(4), UserID(4).Value.Int64())
	assert.Equal(t, KeySessionID, SessionID(8).Key)
	assert.Equal(t, "reply", Channel("reply").Value.String())
	assert.True(t, Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, KeyError, Err(assert.AnError).Key)
}

func TestInit(t *testing.T) {
	t.Run("FileOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "streambuf.log")
		t.Cleanup(func() {
			_ = Init(Config{Output: "stdout", Level: "INFO", Format: "text"})
		})

		require.NoError(t, Init(Config{Output: path, Level: "DEBUG", Format: "text"}))
		Debug("to file", KeyBytes, 12)

		// Switching away closes the file.
		require.NoError(t, Init(Config{Output: "stderr"}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file bytes=12")
	})

	t.Run("BadPath", func(t *testing.T) {
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})

	t.Run("EmptyConfig", func(t *testing.T) {
		assert.NoError(t, Init(Config{}))
	})
}

func TestConcurrentLogging(t *testing.T) {
	buf := &syncBuffer{}
	SetLevel("INFO")
	SetOutput(buf, false)
	t.Cleanup(func() {
		SetLevel("INFO")
		SetOutput(os.Stdout, false)
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				Info("line", "g", g, "i", i)
			}
		}(g)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			SetLevel("INFO")
			SetLevel("DEBUG")
		}
	}()
	wg.Wait()

	lines := buf.Lines()
	assert.Len(t, lines, 400)
	for _, l := range lines {
		assert.Contains(t, l, "INFO  line g=")
	}
}

func BenchmarkLogDisabled(b *testing.B) {
	SetOutput(new(bytes.Buffer), false)
	SetLevel("ERROR")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Debug("test message", "key", "value")
	}
}

func BenchmarkLogCtx(b *testing.B) {
	SetOutput(new(bytes.Buffer), false)
	SetLevel("DEBUG")
	ctx := WithContext(context.Background(), &LogContext{TraceID: "abc", UserID: 1000, SessionID: 1})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InfoCtx(ctx, "test message", "count", i)
	}
}
