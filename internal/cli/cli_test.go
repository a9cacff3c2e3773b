package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"nodestore/internal/api"
	"nodestore/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	ts := httptest.NewServer(api.New(api.Config{}).Handler())
	t.Cleanup(ts.Close)
	return NewExecutor(client.New(client.Config{BaseURL: ts.URL}))
}

func TestCommandHistory(t *testing.T) {
	h := NewCommandHistory(3)
	assert.Equal(t, "", h.Previous())

	h.Add("one")
	h.Add("two")
	h.Add("two")
	h.Add("")
	assert.Equal(t, 2, h.Len())

	assert.Equal(t, "two", h.Previous())
	assert.Equal(t, "one", h.Previous())
	assert.Equal(t, "", h.Previous())
	assert.Equal(t, "two", h.Next())
	assert.Equal(t, "", h.Next())

	h.Add("three")
	h.Add("four")
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "four", h.Previous())
	assert.Equal(t, "three", h.Previous())
	assert.Equal(t, "two", h.Previous())
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
		wantErr  bool
	}{
		{"SET key value", []string{"SET", "key", "value"}, false},
		{"  SET   key\tvalue  ", []string{"SET", "key", "value"}, false},
		{`SET key "hello world"`, []string{"SET", "key", "hello world"}, false},
		{`SET key ""`, []string{"SET", "key", ""}, false},
		{`SET key "say \"hi\""`, []string{"SET", "key", `say "hi"`}, false},
		{`SET key "open`, nil, true},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			args, err := splitArgs(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestReplyFormat(t *testing.T) {
	assert.Equal(t, "OK", status("OK").format(false))
	assert.Equal(t, "(integer) 3", integer(3).format(false))
	assert.Equal(t, "3", integer(3).format(true))
	assert.Equal(t, `"v"`, bulk("v").format(false))
	assert.Equal(t, "v", bulk("v").format(true))
	assert.Equal(t, "(nil)", nilReply().format(false))
	assert.Equal(t, "", nilReply().format(true))
	assert.Equal(t, "(empty list or set)", list(nil).format(false))
	assert.Equal(t, "1) \"a\"\n2) \"b\"", list([]string{"a", "b"}).format(false))
	assert.Equal(t, "a\nb", list([]string{"a", "b"}).format(true))
}

func TestExecuteCommands(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	steps := []struct {
		line     string
		expected string
	}{
		{"PING", "PONG"},
		{"SET greeting hello", "OK"},
		{"get greeting", `"hello"`},
		{"GET missing", "(nil)"},
		{"TYPE greeting", "string"},
		{"LPUSH L a b", "(integer) 2"},
		{"RPUSH L c", "(integer) 3"},
		{"LRANGE L 0 -1", "1) \"b\"\n2) \"a\"\n3) \"c\""},
		{"LRANGE L 10 20", "(empty list or set)"},
		{"SADD S x y x", "(integer) 2"},
		{"SMEMBERS S", "1) \"x\"\n2) \"y\""},
		{"HSET H f1 v1", "(integer) 1"},
		{"HSET H f1 v2 f2 v3", "(integer) 1"},
		{"HGET H f1", `"v2"`},
		{"HGET H nope", "(nil)"},
		{"HGETALL H", "1) \"f1\"\n2) \"v2\"\n3) \"f2\"\n4) \"v3\""},
		{"ZADD Z 1 a 0.5 b", "(integer) 2"},
		{"ZADD Z 2 a", "(integer) 0"},
		{"ZRANGE Z 0 -1", "1) \"b\"\n2) \"a\""},
		{"ZRANGE Z 0 -1 WITHSCORES", "1) \"b\"\n2) \"0.5\"\n3) \"a\"\n4) \"2\""},
		{"DEL greeting L nothing", "(integer) 2"},
		{"GET greeting", "(nil)"},
	}

	for _, step := range steps {
		assert.Equal(t, step.expected, e.Execute(ctx, step.line, false), step.line)
	}
}

func TestExecuteErrors(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	assert.Equal(t, "", e.Execute(ctx, "   ", false))
	assert.Equal(t, "(error) unknown command 'FOO'", e.Execute(ctx, "FOO bar", false))
	assert.Equal(t, "(error) wrong number of arguments for 'set' command", e.Execute(ctx, "SET k", false))
	assert.Equal(t, "(error) wrong number of arguments for 'get' command", e.Execute(ctx, "GET a b", false))
	assert.Equal(t, "(error) wrong number of arguments for 'hset' command", e.Execute(ctx, "HSET h f v f2", false))
	assert.Equal(t, "(error) wrong number of arguments for 'zadd' command", e.Execute(ctx, "ZADD z 1", false))
	assert.Equal(t, "(error) value is not a valid float", e.Execute(ctx, "ZADD z abc m", false))
	assert.Equal(t, "(error) value is not an integer or out of range", e.Execute(ctx, "LRANGE l a b", false))
	assert.Equal(t, "(error) syntax error", e.Execute(ctx, "ZRANGE z 0 -1 NOPE", false))
	assert.Equal(t, "(error) unbalanced quotes in request", e.Execute(ctx, `SET k "v`, false))
}

func TestRunLines(t *testing.T) {
	e := newTestExecutor(t)
	input := strings.NewReader("# comment\nSET k v\n\nGET k\n")

	var out bytes.Buffer
	require.NoError(t, runLines(context.Background(), e, input, &out, false, true))
	assert.Equal(t, "Line 2: OK\nLine 4: \"v\"\n", out.String())

	out.Reset()
	require.NoError(t, runLines(context.Background(), e, strings.NewReader("GET k\n"), &out, true, false))
	assert.Equal(t, "v\n", out.String())
}

func TestReadInputWithHistory(t *testing.T) {
	h := NewCommandHistory(10)
	h.Add("GET a")
	h.Add("GET b")

	tests := []struct {
		name     string
		keys     string
		expected string
	}{
		{"plain", "PING\r", "PING"},
		{"backspace", "PINX\x7fG\r", "PING"},
		{"up arrow", "\x1b[A\r", "GET b"},
		{"up twice", "\x1b[A\x1b[A\r", "GET a"},
		{"insert after left arrow", "PNG\x1b[D\x1b[DI\r", "PING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.position = h.Len()
			r := bufio.NewReader(strings.NewReader(tt.keys))
			line, err := readInputWithHistory(r, io.Discard, h)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}

func TestReadInputEOF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x04"))
	_, err := readInputWithHistory(r, io.Discard, NewCommandHistory(1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestBaseURL(t *testing.T) {
	cfg := &CLIConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL())
}

func TestHelpListsCommands(t *testing.T) {
	var out bytes.Buffer
	printHelp(&out, "\n")
	assert.Contains(t, out.String(), "ZRANGE key start end [WITHSCORES]")
	assert.Contains(t, out.String(), "HSET key field value [field value ...]")
}
