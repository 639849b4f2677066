package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SAP-F-2025/elearning-service/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.ConfigOpener).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
