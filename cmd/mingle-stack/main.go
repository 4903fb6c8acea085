// Package main provides the mingle-stack binary that deploys the two
// container stack: a PostgreSQL container plus the API container built from
// the local Dockerfile, joined on a dedicated bridge network.
//
// Usage:
//
//	mingle-stack <command> [flags]
//
// Commands:
//
//	up      - Build the image and start the stack (-f manifest, -wait)
//	status  - Show the state of the stack's containers (-f manifest)
//	logs    - Stream logs from one service (-f manifest, -follow, -tail, -timestamps)
//	down    - Stop and remove the stack's containers and network (-f manifest)
//	version - Show version
package main

import (
	"fmt"
	"os"
	"runtime"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mingle-stack <command> [flags]")
		fmt.Fprintln(os.Stderr, "commands: up, status, logs, down, version")
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if err := dispatch(cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "mingle-stack %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// dispatch routes the command to the appropriate handler.
func dispatch(cmd string, args []string) error {
	switch cmd {
	case "up":
		return upCmd(args)
	case "status":
		return statusCmd(args)
	case "logs":
		return logsCmd(args)
	case "down":
		return downCmd(args)
	case "version":
		return versionCmd()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// versionCmd handles the "version" command.
func versionCmd() error {
	fmt.Printf("mingle-stack %s (built %s, %s)\n", Version, BuildTime, runtime.Version())
	return nil
}
