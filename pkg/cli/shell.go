// pkg/cli/shell.go
package cli

import (
	"bufio"
	"io"
	"strings"
)

// Shell provides readline-like line input and command history for an
// interactive command loop.
type Shell struct {
	reader *bufio.Reader

	output    io.Writer
	errOutput io.Writer

	prompt string

	history      []string
	historyIndex int
	maxHistory   int
}

// NewShell creates a new interactive shell with the given input/output streams.
// If errOutput is nil, errors are written to output.
func NewShell(input io.Reader, output, errOutput io.Writer) *Shell {
	var reader *bufio.Reader
	if input != nil {
		reader = bufio.NewReader(input)
	}

	if errOutput == nil {
		errOutput = output
	}

	return &Shell{
		reader:       reader,
		output:       output,
		errOutput:    errOutput,
		prompt:       "ratingdb> ",
		history:      make([]string, 0),
		historyIndex: 0,
		maxHistory:   1000,
	}
}

// SetPrompt changes the primary prompt string.
func (s *Shell) SetPrompt(prompt string) {
	s.prompt = prompt
}

// ReadLine writes the prompt, reads a single line from input, and
// strips trailing whitespace. It returns the line and whether EOF was
// reached.
func (s *Shell) ReadLine() (string, bool) {
	if s.output != nil {
		io.WriteString(s.output, s.prompt)
	}
	if s.reader == nil {
		return "", true
	}

	line, err := s.reader.ReadString('\n')
	line = strings.TrimRight(line, " \t\r\n")
	if err != nil {
		return line, true
	}
	return line, false
}

// AddHistory adds a command to the command history.
func (s *Shell) AddHistory(cmd string) {
	if len(s.history) > 0 && s.history[len(s.history)-1] == cmd {
		return
	}

	s.history = append(s.history, cmd)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
	s.historyIndex = len(s.history)
}

// History returns a copy of the command history.
func (s *Shell) History() []string {
	result := make([]string, len(s.history))
	copy(result, s.history)
	return result
}

// ClearHistory removes all entries from the command history.
func (s *Shell) ClearHistory() {
	s.history = make([]string, 0)
	s.historyIndex = 0
}
