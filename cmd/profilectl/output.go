package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", green("✔"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", yellow("○"), fmt.Sprintf(format, args...))
}

func fail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", red("✘"), fmt.Sprintf(format, args...))
}
