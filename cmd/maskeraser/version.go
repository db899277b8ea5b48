package main

import (
	"fmt"
	"io"
	"os"
)

type versionCmd struct {
	r   *root
	out io.Writer
}

func (v *versionCmd) Run() error {
	out := v.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s version %s", v.r.program, version)
	if commit != "" {
		fmt.Fprintf(out, " (%s", commit)
		if date != "" {
			fmt.Fprintf(out, ", %s", date)
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintln(out)
	return nil
}
