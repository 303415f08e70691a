package asm

import (
	"bufio"
	"io"
	"strings"
)

// rawLine is one physical source line paired with its 1-based line
// number, after blank-line filtering.
type rawLine struct {
	lineNo int
	text   string
}

// lineOrError is what flows out of the classifier stage: either a
// successfully classified Line, or the error that rejected it.
type lineOrError struct {
	line Line
	err  error
}

// startLexing scans r and emits one rawLine per non-blank source line,
// in order, on a channel, so classification can start on earlier lines
// while later ones are still being scanned.
func startLexing(r io.Reader) <-chan rawLine {
	out := make(chan rawLine)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				// A line with only whitespace is ignored.
				continue
			}
			out <- rawLine{lineNo: lineNo, text: text}
		}
	}()
	return out
}

// startClassifying consumes raw lines and emits classified Line records
// (or the error that rejected a line) in source order.
func startClassifying(in <-chan rawLine) <-chan lineOrError {
	out := make(chan lineOrError)
	go func() {
		defer close(out)
		for rl := range in {
			line, err := classifyLine(rl.lineNo, rl.text)
			out <- lineOrError{line: line, err: err}
		}
	}()
	return out
}
