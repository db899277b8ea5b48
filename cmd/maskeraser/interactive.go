package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// interactiveCmd reads commands line by line and runs them through the root
// command, so every command is available with the same flags.
type interactiveCmd struct {
	r      *root
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (i *interactiveCmd) Run() error {
	fmt.Fprintln(i.out, "Enter commands (type 'exit' to quit)")
	scanner := bufio.NewScanner(i.in)
	for {
		fmt.Fprint(i.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		args := strings.Fields(line)
		if args[0] == "interactive" {
			fmt.Fprintln(i.errOut, "already interactive")
			continue
		}
		if err := i.r.Run(args); err != nil {
			fmt.Fprintln(i.errOut, err)
		}
	}
	fmt.Fprintln(i.out)
	return scanner.Err()
}
