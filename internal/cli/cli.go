package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"nodestore/internal/client"

	"golang.org/x/term"
)

const prompt = "nodestore> "

// CLIConfig holds the configuration for the CLI
type CLIConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
	Raw     bool
	Eval    string
	File    string
	Pipe    bool
}

// BaseURL returns the server URL described by the config
func (c *CLIConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CommandHistory manages command history for the CLI
type CommandHistory struct {
	commands []string
	position int
	maxSize  int
}

// NewCommandHistory creates a new command history with specified max size
func NewCommandHistory(maxSize int) *CommandHistory {
	return &CommandHistory{
		commands: make([]string, 0, maxSize),
		maxSize:  maxSize,
	}
}

func (h *CommandHistory) Len() int {
	return len(h.commands)
}

// Add records a command, skipping blanks and immediate repeats
func (h *CommandHistory) Add(command string) {
	if command == "" || (len(h.commands) > 0 && h.commands[len(h.commands)-1] == command) {
		return
	}

	h.commands = append(h.commands, command)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[1:]
	}
	h.position = len(h.commands)
}

// Previous moves back one entry. Returns "" once the oldest entry has been passed.
func (h *CommandHistory) Previous() string {
	if len(h.commands) == 0 || h.position == 0 {
		return ""
	}
	h.position--
	return h.commands[h.position]
}

// Next moves forward one entry. Returns "" when back at the live input line.
func (h *CommandHistory) Next() string {
	if h.position < len(h.commands)-1 {
		h.position++
		return h.commands[h.position]
	}
	h.position = len(h.commands)
	return ""
}

// runLines executes every non-blank, non-comment line from r and writes
// the replies to w. When numbered is set each reply is prefixed with its
// line number.
func runLines(ctx context.Context, exec *Executor, r io.Reader, w io.Writer, raw, numbered bool) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		out := exec.Execute(ctx, line, raw)
		if numbered {
			fmt.Fprintf(w, "Line %d: %s\n", lineNum, out)
		} else {
			fmt.Fprintln(w, out)
		}
	}
	return scanner.Err()
}

func executeInteractive(ctx context.Context, exec *Executor, config *CLIConfig) {
	fmt.Printf("Connected to %s\n", config.BaseURL())
	fmt.Printf("Type 'help' for commands, 'quit' to exit\n\n")

	history := NewCommandHistory(100)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		executeInteractiveFallback(ctx, exec, config, history)
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not set terminal to raw mode, history navigation disabled: %v\n", err)
		executeInteractiveFallback(ctx, exec, config, history)
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\r" + prompt)
		input, err := readInputWithHistory(reader, os.Stdout, history)
		if err != nil {
			break
		}
		if done := handleLine(ctx, exec, config, history, input, "\r\n"); done {
			break
		}
	}
	fmt.Print("\r\nGoodbye!\r\n")
}

// executeInteractiveFallback is used when raw mode is not available
func executeInteractiveFallback(ctx context.Context, exec *Executor, config *CLIConfig, history *CommandHistory) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(prompt)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			break
		}
		if done := handleLine(ctx, exec, config, history, input, "\n"); done {
			break
		}
	}
	fmt.Println("Goodbye!")
}

// handleLine runs one interactive line. Returns true when the user asked to quit.
func handleLine(ctx context.Context, exec *Executor, config *CLIConfig, history *CommandHistory, input, eol string) bool {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		printHelp(os.Stdout, eol)
		return false
	case "clear":
		fmt.Print("\033[H\033[2J")
		return false
	}

	history.Add(input)
	out := exec.Execute(ctx, input, config.Raw)
	fmt.Print(strings.ReplaceAll(out, "\n", eol) + eol)
	return false
}

// readInputWithHistory reads one line in raw mode, echoing to w and
// handling arrow-key history navigation, cursor movement and backspace.
func readInputWithHistory(reader *bufio.Reader, w io.Writer, history *CommandHistory) (string, error) {
	var line []byte
	cursor := 0

	redraw := func(s string) {
		line = []byte(s)
		cursor = len(line)
		fmt.Fprint(w, "\r\033[K"+prompt+s)
	}

	for {
		ch, err := reader.ReadByte()
		if err != nil {
			return "", err
		}

		switch ch {
		case 27: // ESC
			seq, err := readEscape(reader)
			if err != nil {
				return "", err
			}
			switch seq {
			case 'A':
				if prev := history.Previous(); prev != "" {
					redraw(prev)
				}
			case 'B':
				redraw(history.Next())
			case 'C':
				if cursor < len(line) {
					cursor++
					fmt.Fprint(w, "\033[C")
				}
			case 'D':
				if cursor > 0 {
					cursor--
					fmt.Fprint(w, "\033[D")
				}
			}
		case 127, 8: // Backspace
			if cursor > 0 {
				line = append(line[:cursor-1], line[cursor:]...)
				cursor--
				fmt.Fprint(w, "\b"+string(line[cursor:])+" "+strings.Repeat("\b", len(line)-cursor+1))
			}
		case 3: // Ctrl+C
			fmt.Fprint(w, "\r\nUse 'quit' or 'exit' to exit the CLI\r\n"+prompt)
			line, cursor = line[:0], 0
		case 4: // Ctrl+D
			if len(line) == 0 {
				return "", io.EOF
			}
		case '\r', '\n':
			fmt.Fprint(w, "\r\n")
			return string(line), nil
		default:
			if ch >= 32 && ch <= 126 {
				line = append(line[:cursor], append([]byte{ch}, line[cursor:]...)...)
				fmt.Fprint(w, string(line[cursor:])+strings.Repeat("\b", len(line)-cursor-1))
				cursor++
			}
		}
	}
}

// readEscape consumes the rest of an ANSI escape sequence after ESC and
// returns its final byte, or 0 for sequences we ignore.
func readEscape(reader *bufio.Reader) (byte, error) {
	next, err := reader.ReadByte()
	if err != nil {
		return 0, err
	}
	if next != '[' {
		return 0, nil
	}
	final, err := reader.ReadByte()
	if err != nil {
		return 0, err
	}
	return final, nil
}

func printHelp(w io.Writer, eol string) {
	fmt.Fprint(w, "Commands:"+eol)
	for _, usage := range usageLines() {
		fmt.Fprint(w, "  "+usage+eol)
	}
	fmt.Fprint(w, eol+"  help, clear, quit, exit"+eol)
}

// RunCLI connects to the server and runs in the mode selected by config
func RunCLI(config *CLIConfig, args []string) {
	c := client.New(client.Config{BaseURL: config.BaseURL(), Timeout: config.Timeout})
	exec := NewExecutor(c)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to %s: %v\n", config.BaseURL(), err)
		os.Exit(1)
	}

	switch {
	case config.Eval != "":
		fmt.Println(exec.Execute(ctx, config.Eval, config.Raw))
	case len(args) > 0:
		fmt.Println(exec.Execute(ctx, strings.Join(args, " "), config.Raw))
	case config.File != "":
		file, err := os.Open(config.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening file %s: %v\n", config.File, err)
			os.Exit(1)
		}
		defer file.Close()
		if err := runLines(ctx, exec, file, os.Stdout, config.Raw, !config.Raw); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
	case config.Pipe:
		if err := runLines(ctx, exec, os.Stdin, os.Stdout, config.Raw, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	default:
		executeInteractive(ctx, exec, config)
	}
}
