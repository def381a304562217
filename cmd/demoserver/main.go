// Command demoserver starts the webscan demo target.
// Usage: go run ./cmd/demoserver [port] [safe|vulnerable]
// Default: port 9999, vulnerable mode.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/cayfen/webscan/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if len(os.Args) > 2 {
		switch os.Args[2] {
		case "safe":
			cfg.Mode = demoserver.ModeSafe
		case "vulnerable":
			cfg.Mode = demoserver.ModeVulnerable
		default:
			log.Fatalf("Invalid mode: %s (want safe or vulnerable)", os.Args[2])
		}
	}

	fmt.Println("===========================================")
	fmt.Println("   webscan Demo Target")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This server is a deliberately configurable scan target.")
	fmt.Println("In vulnerable mode it trips the scanner's probe families:")
	fmt.Println("  - Missing security headers")
	fmt.Println("  - Reflected query parameters (/search?q=)")
	fmt.Println("  - SQL error text on injected input (/product?id=)")
	fmt.Println("  - Forms without CSRF tokens, open upload endpoint")
	fmt.Println("  - Exposed /admin and /.env")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
