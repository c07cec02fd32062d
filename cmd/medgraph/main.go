package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch command := args[0]; command {
	case "load":
		err = handleLoad(ctx, args[1:], stdout)
	case "constraints":
		err = handleConstraints(ctx, args[1:], stdout)
	case "verify":
		err = handleVerify(ctx, args[1:], stdout)
	case "query":
		err = handleQuery(ctx, args[1:], stdout)
	case "help", "--help", "-h":
		printUsage(stdout)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "medgraph %s\n", version)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	usage := `medgraph - load the medical knowledge graph from CSV files

Usage:
  medgraph <command> [options]

Available Commands:
  load         Create constraints, load nodes, load relationships, verify
  constraints  Declare the unique id constraints only
  verify       Print node and relationship counts
  query        Look up symptoms, treatments or candidate diseases
  help         Show this help message
  version      Show version information

Common Flags:
  --config FILE        YAML configuration file
  --driver NAME        embedded, neo4j or postgres
  --data-dir DIR       Snapshot directory of the embedded store (default: medgraph-data)
  --source URI         Dataset directory or s3://bucket/prefix
  --manifest FILE      Dataset manifest (default: the medical layout)
  --log-level LEVEL    debug, info, warn or error

Examples:
  # Load ./data into a local Neo4j
  NEO4J_URI=bolt://localhost:7687 medgraph load --driver neo4j --source ./data

  # Check the expected counts after a load
  medgraph verify --expect Disease=3,Symptom=2,HAS_SYMPTOM=2

  # Rank diseases by a symptom
  medgraph query diagnose fever
`
	fmt.Fprint(w, usage)
}
