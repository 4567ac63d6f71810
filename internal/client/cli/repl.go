package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// isTerminal is a test seam; the prompt is only printed for interactive use.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Choose(ctx context.Context, source string) error
	Caption(ctx context.Context, text string) error
	Submit(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context) error
}

const helpText = `Available commands:
  choose <path|url>  pick an image (PNG, JPG, GIF up to 5MB)
  caption <text>     set the caption (empty clears it)
  submit             save the memory
  (l)ist             list memories, newest first
  delete <id>        delete a memory and its image
  status             show the form and gallery state
  exit               leave the program`

// runREPL starts a simple read-eval-print loop for the photo diary CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	interactive := isTerminal()
	for {
		if interactive {
			printlnFn(fmt.Sprintf("pd> %s > ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "choose":
			if rest == "" {
				printlnFn("Usage: choose <path|url>")
				continue
			}
			_ = a.Choose(ctx, rest)

		case "caption":
			_ = a.Caption(ctx, rest)

		case "submit":
			_ = a.Submit(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "delete":
			if rest == "" {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, rest)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
