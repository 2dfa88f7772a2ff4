// Command htmlxpathdump evaluates an XPath 3.1 expression against an HTML
// document and prints the resulting sequence, one item per line. It is a
// thin demonstration harness, not part of the core library (spec.md §6's
// Non-goals exclude a CLI from core scope).
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/htmlxpath/htmlxpath/html"
	"github.com/htmlxpath/htmlxpath/xdm"
	"github.com/htmlxpath/htmlxpath/xpath"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		logger.Error("htmlxpathdump failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: htmlxpathdump '<xpath-expression>' < document.html")
	}

	src, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	doc, diags := html.Parse(string(src))
	for _, d := range diags {
		logger.Warn("parse diagnostic", "message", d.Message, "offset", d.Offset)
	}

	expr, err := xpath.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parsing expression: %w", err)
	}

	seq, err := expr.Apply(xdm.NewDocument(doc))
	if err != nil {
		return fmt.Errorf("evaluating expression: %w", err)
	}

	for _, it := range seq {
		fmt.Fprintln(stdout, xpath.Sequence{it}.StringValue())
	}
	return nil
}
