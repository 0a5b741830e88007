package client

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const debugValueMaxLen = 120

// Dump writes a human-readable description of a pending request to w,
// useful while developing a connector. Pass nil to write to stdout.
func Dump(w io.Writer, pr *PendingRequest) {
	if w == nil {
		w = os.Stdout
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint(pr.Method()), cyan.Sprint(pr.URL()))

	if pr.headers.Len() > 0 {
		fmt.Fprintln(w, bold.Sprint("Headers:"))
		for _, p := range pr.headers.Pairs() {
			fmt.Fprintf(w, "  %s: %s\n", p.Key, debugValue(p.Value))
		}
	}
	if pr.query.Len() > 0 {
		fmt.Fprintln(w, bold.Sprint("Query:"))
		for _, p := range pr.query.Pairs() {
			fmt.Fprintf(w, "  %s=%s\n", p.Key, debugValue(p.Value))
		}
	}
	if body, err := pr.BodyBytes(); err == nil && len(body) > 0 {
		fmt.Fprintf(w, "%s (%s)\n", bold.Sprint("Body:"), dim.Sprint(pr.ContentType()))
		fmt.Fprintf(w, "  %s\n", debugValue(string(body)))
	}
	if pr.mock != nil {
		fmt.Fprintln(w, dim.Sprint("dispatch: mocked"))
	}
}

func debugValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > debugValueMaxLen {
		return s[:debugValueMaxLen] + "..."
	}
	return s
}
