// Package console provides the line-oriented user channel: a terminal or a
// serial link to a board REPL.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Console reads and writes whole lines.
type Console struct {
	scanner *bufio.Scanner
	out     io.Writer
	closer  io.Closer

	mu sync.Mutex
}

// New creates a console over r and w.
func New(r io.Reader, w io.Writer) *Console {
	return &Console{
		scanner: bufio.NewScanner(r),
		out:     w,
	}
}

// OpenSerial opens a serial port and uses it for both input and output.
func OpenSerial(port string, baud int) (*Console, error) {
	if baud <= 0 {
		baud = 115200
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	c := New(p, p)
	c.closer = p
	return c, nil
}

// ReadLine blocks until a full line is available. The trailing newline and
// any carriage return are removed. io.EOF is returned once input is exhausted.
func (c *Console) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.scanner.Text(), "\r"), nil
}

// WriteLine writes text followed by a newline. Write errors are dropped;
// console output is status reporting only.
func (c *Console) WriteLine(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

// Close closes the underlying serial port, if any.
func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// SetReadTimeout bounds serial reads. It is a no-op on other consoles.
func (c *Console) SetReadTimeout(d time.Duration) error {
	if p, ok := c.closer.(serial.Port); ok {
		return p.SetReadTimeout(d)
	}
	return nil
}
