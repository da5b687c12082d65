package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// PromptAcquirer asks an operator to log in at LoginURL with a browser and
// paste the resulting Cookie header. A single reader goroutine owns In for
// the acquirer's lifetime, so a line typed after one Acquire gave up is
// handed to the next one.
type PromptAcquirer struct {
	loginURL string
	in       io.Reader
	out      io.Writer

	once  sync.Once
	lines chan promptLine
}

type promptLine struct {
	text string
	err  error
}

func NewPromptAcquirer(loginURL string, in io.Reader, out io.Writer) *PromptAcquirer {
	return &PromptAcquirer{
		loginURL: loginURL,
		in:       in,
		out:      out,
		lines:    make(chan promptLine),
	}
}

func (p *PromptAcquirer) Acquire(ctx context.Context) (CookieSet, error) {
	p.once.Do(func() { go p.readLines() })
	fmt.Fprintf(p.out, "Log in at %s and paste the Cookie request header:\n> ", p.loginURL)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return nil, fmt.Errorf("read cookie header: %w", io.EOF)
			}
			if line.err != nil {
				return nil, fmt.Errorf("read cookie header: %w", line.err)
			}
			if strings.TrimSpace(line.text) == "" {
				continue
			}
			return ParseCookieHeader(line.text), nil
		}
	}
}

// readLines forwards input lines until In fails, then reports the error once
// and closes the channel.
func (p *PromptAcquirer) readLines() {
	defer close(p.lines)
	r := bufio.NewReader(p.in)
	for {
		text, err := r.ReadString('\n')
		if text != "" {
			p.lines <- promptLine{text: text}
		}
		if err != nil {
			p.lines <- promptLine{err: err}
			return
		}
	}
}

// ParseCookieHeader parses "a=1; b=2" (optionally prefixed by "Cookie:").
func ParseCookieHeader(header string) CookieSet {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "cookie:") {
		header = strings.TrimSpace(header[7:])
	}
	req := http.Request{Header: http.Header{"Cookie": {header}}}
	out := CookieSet{}
	for _, ck := range req.Cookies() {
		out[ck.Name] = ck.Value
	}
	return out
}
