package main

import (
	"fmt"
	"os"

	"github.com/limaJavier/timetableplus/internal/cli"
)

func main() {
	app := &cli.App{}
	err := cli.NewRootCmd(app).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(app.ExitCode(err))
}
