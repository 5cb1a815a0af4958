package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"
)

// console is the interactive surface shared by run and onboard.
type console interface {
	// Readline returns the next input line without its newline.
	Readline() (string, error)

	// Show updates the live countdown text.
	Show(text string)

	// Stdout returns a writer that coordinates with the input line.
	Stdout() io.Writer

	Close() error
}

// newConsole returns a line console over in when set, a readline console
// when stdin is a terminal, and a line console over stdin otherwise.
func newConsole(in io.Reader, out io.Writer) (console, error) {
	if in != nil {
		return newLineConsole(in, out), nil
	}
	if readline.DefaultIsTerminal() {
		rc, err := newReadlineConsole()
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return newLineConsole(os.Stdin, out), nil
}

// readlineConsole shows the countdown in the prompt.
type readlineConsole struct {
	rl *readline.Instance
}

func newReadlineConsole() (*readlineConsole, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &readlineConsole{rl: rl}, nil
}

func (c *readlineConsole) Readline() (string, error) {
	return c.rl.Readline()
}

func (c *readlineConsole) Show(text string) {
	if text == "" {
		c.rl.SetPrompt("> ")
	} else {
		c.rl.SetPrompt(fmt.Sprintf("[%s] > ", text))
	}
	c.rl.Refresh()
}

func (c *readlineConsole) Stdout() io.Writer {
	return c.rl.Stdout()
}

func (c *readlineConsole) Close() error {
	return c.rl.Close()
}

// lineConsole reads plain lines and prints every display update on its own
// line. Used for pipes and tests.
type lineConsole struct {
	scanner *bufio.Scanner
	out     *syncWriter
}

func newLineConsole(in io.Reader, out io.Writer) *lineConsole {
	return &lineConsole{
		scanner: bufio.NewScanner(in),
		out:     &syncWriter{w: out},
	}
}

func (c *lineConsole) Readline() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

func (c *lineConsole) Show(text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(c.out, text)
}

func (c *lineConsole) Stdout() io.Writer {
	return c.out
}

func (c *lineConsole) Close() error {
	return nil
}

// syncWriter serializes writes from the engine goroutine and the input loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
