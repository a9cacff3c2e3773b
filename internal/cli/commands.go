package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nodestore/internal/client"
)

type replyKind int

const (
	replyStatus replyKind = iota
	replyInteger
	replyBulk
	replyNil
	replyList
)

// reply is the result of one command, rendered by format
type reply struct {
	kind  replyKind
	text  string
	n     int
	items []string
}

func status(s string) reply { return reply{kind: replyStatus, text: s} }
func integer(n int) reply { return reply{kind: replyInteger, n: n} }
func bulk(s string) reply { return reply{kind: replyBulk, text: s} }
func nilReply() reply { return reply{kind: replyNil} }
func list(items []string) reply { return reply{kind: replyList, items: items} }

// format renders r the way redis-cli does, or plainly when raw is set
func (r reply) format(raw bool) string {
	switch r.kind {
	case replyInteger:
		if raw {
			return strconv.Itoa(r.n)
		}
		return fmt.Sprintf("(integer) %d", r.n)
	case replyBulk:
		if raw {
			return r.text
		}
		return strconv.Quote(r.text)
	case replyNil:
		if raw {
			return ""
		}
		return "(nil)"
	case replyList:
		if raw {
			return strings.Join(r.items, "\n")
		}
		if len(r.items) == 0 {
			return "(empty list or set)"
		}
		var b strings.Builder
		for i, item := range r.items {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d) %s", i+1, strconv.Quote(item))
		}
		return b.String()
	default:
		return r.text
	}
}

// command describes one CLI command. min and max bound the number of
// arguments after the command name (max -1 is unbounded); step, when set,
// requires the arguments past min to come in groups of that size.
type command struct {
	min   int
	max   int
	step  int
	usage string
	run   func(ctx context.Context, c *client.Client, args []string) (reply, error)
}

var errSyntax = errors.New("syntax error")

var commands = map[string]command{
	"PING": {0, 0, 0, "PING", func(ctx context.Context, c *client.Client, _ []string) (reply, error) {
		if err := c.Ping(ctx); err != nil {
			return reply{}, err
		}
		return status("PONG"), nil
	}},
	"SET": {2, 2, 0, "SET key value", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		if err := c.Set(ctx, args[0], args[1]); err != nil {
			return reply{}, err
		}
		return status("OK"), nil
	}},
	"GET": {1, 1, 0, "GET key", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		v, err := c.Get(ctx, args[0])
		return bulkOrNil(v, err)
	}},
	"DEL": {1, -1, 0, "DEL key [key ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		total := 0
		for _, key := range args {
			n, err := c.Del(ctx, key)
			if err != nil {
				return reply{}, err
			}
			total += n
		}
		return integer(total), nil
	}},
	"TYPE": {1, 1, 0, "TYPE key", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		kind, err := c.Type(ctx, args[0])
		if err != nil {
			return reply{}, err
		}
		return status(kind), nil
	}},
	"LPUSH": {2, -1, 0, "LPUSH key value [value ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		n, err := c.LPush(ctx, args[0], args[1:]...)
		return integer(n), err
	}},
	"RPUSH": {2, -1, 0, "RPUSH key value [value ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		n, err := c.RPush(ctx, args[0], args[1:]...)
		return integer(n), err
	}},
	"LRANGE": {3, 3, 0, "LRANGE key start end", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		start, end, err := parseRange(args[1], args[2])
		if err != nil {
			return reply{}, err
		}
		values, err := c.LRange(ctx, args[0], start, end)
		return list(values), err
	}},
	"SADD": {2, -1, 0, "SADD key member [member ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		n, err := c.SAdd(ctx, args[0], args[1:]...)
		return integer(n), err
	}},
	"SMEMBERS": {1, 1, 0, "SMEMBERS key", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		members, err := c.SMembers(ctx, args[0])
		return list(members), err
	}},
	"HSET": {3, -1, 2, "HSET key field value [field value ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		if len(args) == 3 {
			n, err := c.HSet(ctx, args[0], args[1], args[2])
			return integer(n), err
		}
		fields := make(map[string]string, (len(args)-1)/2)
		for i := 1; i < len(args); i += 2 {
			fields[args[i]] = args[i+1]
		}
		n, err := c.HSetFields(ctx, args[0], fields)
		return integer(n), err
	}},
	"HGET": {2, 2, 0, "HGET key field", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		v, err := c.HGet(ctx, args[0], args[1])
		return bulkOrNil(v, err)
	}},
	"HGETALL": {1, 1, 0, "HGETALL key", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		all, err := c.HGetAll(ctx, args[0])
		if err != nil {
			return reply{}, err
		}
		fields := make([]string, 0, len(all))
		for f := range all {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		items := make([]string, 0, 2*len(fields))
		for _, f := range fields {
			items = append(items, f, all[f])
		}
		return list(items), nil
	}},
	"ZADD": {3, -1, 2, "ZADD key score member [score member ...]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		members := make(map[string]float64, (len(args)-1)/2)
		for i := 1; i < len(args); i += 2 {
			score, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return reply{}, errors.New("value is not a valid float")
			}
			members[args[i+1]] = score
		}
		n, err := c.ZAdd(ctx, args[0], members)
		return integer(n), err
	}},
	"ZRANGE": {3, 4, 0, "ZRANGE key start end [WITHSCORES]", func(ctx context.Context, c *client.Client, args []string) (reply, error) {
		start, end, err := parseRange(args[1], args[2])
		if err != nil {
			return reply{}, err
		}
		switch {
		case len(args) == 3:
			members, err := c.ZRange(ctx, args[0], start, end)
			return list(members), err
		case len(args) == 4 && strings.EqualFold(args[3], "WITHSCORES"):
			scored, err := c.ZRangeWithScores(ctx, args[0], start, end)
			items := make([]string, 0, 2*len(scored))
			for _, m := range scored {
				items = append(items, m.Member, strconv.FormatFloat(m.Score, 'f', -1, 64))
			}
			return list(items), err
		default:
			return reply{}, errSyntax
		}
	}},
}

func (c command) accepts(n int) bool {
	if n < c.min || (c.max >= 0 && n > c.max) {
		return false
	}
	return c.step == 0 || (n-c.min)%c.step == 0
}

func bulkOrNil(v string, err error) (reply, error) {
	if errors.Is(err, client.ErrNotFound) {
		return nilReply(), nil
	}
	if err != nil {
		return reply{}, err
	}
	return bulk(v), nil
}

func parseRange(start, end string) (int, int, error) {
	s, err1 := strconv.Atoi(start)
	e, err2 := strconv.Atoi(end)
	if err1 != nil || err2 != nil {
		return 0, 0, errors.New("value is not an integer or out of range")
	}
	return s, e, nil
}

// Executor runs text commands against a server
type Executor struct {
	client *client.Client
}

func NewExecutor(c *client.Client) *Executor {
	return &Executor{client: c}
}

// Execute runs one command line and returns the formatted reply. Failures
// are rendered as "(error) ..." rather than returned.
func (e *Executor) Execute(ctx context.Context, line string, raw bool) string {
	parts, err := splitArgs(line)
	if err != nil {
		return formatError(err)
	}
	if len(parts) == 0 {
		return ""
	}

	name := strings.ToUpper(parts[0])
	cmd, ok := commands[name]
	if !ok {
		return formatError(fmt.Errorf("unknown command '%s'", parts[0]))
	}

	args := parts[1:]
	if !cmd.accepts(len(args)) {
		return formatError(fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(name)))
	}

	r, err := cmd.run(ctx, e.client, args)
	if err != nil {
		return formatError(err)
	}
	return r.format(raw)
}

func formatError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return "(error) " + apiErr.Detail
	}
	return "(error) " + err.Error()
}

// splitArgs splits a command line on whitespace, honouring double quotes
// and backslash escapes inside them.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasArg  bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case ch == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && (ch == ' ' || ch == '\t'):
			if hasArg {
				args = append(args, cur.String())
				cur.Reset()
				hasArg = false
			}
		default:
			cur.WriteByte(ch)
			hasArg = true
		}
	}

	if inQuote {
		return nil, errors.New("unbalanced quotes in request")
	}
	if hasArg {
		args = append(args, cur.String())
	}
	return args, nil
}

// usageLines lists every command's usage, sorted
func usageLines() []string {
	lines := make([]string, 0, len(commands))
	for _, cmd := range commands {
		lines = append(lines, cmd.usage)
	}
	sort.Strings(lines)
	return lines
}
