package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders markdown to the terminal. When rendering is not
// possible the raw source is printed instead, so output is never lost.
func printMarkdown(source string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(source)
		return
	}
	out, err := r.Render(source)
	if err != nil {
		fmt.Print(source)
		return
	}
	fmt.Fprint(os.Stdout, out)
}
