package main

import (
	"fmt"
	"os"

	"github.com/robertguss/factorydesk/internal/cli"
)

func main() {
	app := &cli.App{}
	err := cli.NewRootCmd(app).Execute()
	_ = app.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
