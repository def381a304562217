package main

import (
	"context"
	"fmt"
	"net/http/httptest"

	"github.com/cayfen/webscan/internal/demoserver"
	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/scanner"
	"github.com/cayfen/webscan/internal/webclient"
)

// Self-contained demo: spins up the vulnerable demo target in-process and
// runs one quick scan against it. For the HTTP API use cmd/api.
func main() {
	demo := demoserver.NewDemoServer(demoserver.Config{Mode: demoserver.ModeVulnerable})
	target := httptest.NewServer(demo.Handler())
	defer target.Close() // Close AFTER scanning

	logger := logging.NewStdoutLogger("demo")

	wc, err := webclient.New(webclient.DefaultConfig(), logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer wc.Close()

	engine := scanner.NewEngine(wc, 50, 10, logger)
	out, err := engine.Run(context.Background(), target.URL, model.ScanTypeQuick)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("\nTarget: %s\n", target.URL)
	fmt.Printf("Score: %d/100 (severity: %s)\n", out.SecurityScore, out.Severity)
	fmt.Printf("Checks: %d passed, %d failed\n", out.Checks.Passed, out.Checks.Failed)
	for _, f := range out.Findings {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Type, f.Description)
	}
}
