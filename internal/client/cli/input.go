package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints a yes/no question to w and reads the answer from scanner.
// Only "y" or "yes" count as yes; EOF counts as no.
//
// Example prompt format:
//
//	Question? [y/N]
//	> _
func Confirm(scanner *bufio.Scanner, prompt string, w io.Writer) bool {
	if _, err := fmt.Fprint(w, prompt+" [y/N]\n> "); err != nil {
		return false
	}
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}
