// Command example demonstrates the htmlxpath library end to end: parse an
// HTML fragment, wrap it as an XDM document, and evaluate a handful of
// XPath 3.1 expressions against it.
package main

import (
	"log/slog"
	"os"

	"github.com/htmlxpath/htmlxpath/html"
	"github.com/htmlxpath/htmlxpath/xdm"
	"github.com/htmlxpath/htmlxpath/xpath"
)

const page = `
<html>
  <body>
    <ul class="todos">
      <li data-done="false">write the parser</li>
      <li data-done="true">write the tokenizer</li>
      <li data-done="false">wire up the example</li>
    </ul>
  </body>
</html>
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	doc, diags := html.Parse(page)
	for _, d := range diags {
		logger.Warn("parse diagnostic", "kind", d.Kind, "message", d.Message, "offset", d.Offset)
	}

	root := xdm.NewDocument(doc)

	exprs := []string{
		`//li[@data-done='false']`,
		`count(//li)`,
		`//li[@data-done='true']/text()`,
		`string(//ul/@class)`,
	}

	for _, src := range exprs {
		expr, err := xpath.Parse(src)
		if err != nil {
			logger.Error("parse failed", "expr", src, "error", err)
			continue
		}
		seq, err := expr.Apply(root)
		if err != nil {
			logger.Error("evaluation failed", "expr", src, "error", err)
			continue
		}
		logger.Info("evaluated", "expr", src, "result", seq.StringValue(), "count", len(seq))
	}
}
