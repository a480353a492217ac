package render

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

var isOutputTTY = sync.OnceValue(func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
})

// IsOutputTTY reports whether stdout is a terminal.
func IsOutputTTY() bool {
	return isOutputTTY()
}
