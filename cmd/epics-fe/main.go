package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ucn-triumf/epics2midas-modern"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/recfile"
	"github.com/ucn-triumf/epics2midas-modern/internal/record"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "dump":
		err = dumpCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("epics-fe %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to frontend configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := epics2midas.Open(*cfgPath)
	if err != nil {
		return fmt.Errorf("open runtime: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := epics2midas.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s: %d channels, source %s ✅\n", *cfgPath, len(cfg.Channels), cfg.Source)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"e2m_reads_total":           0,
		"e2m_read_failures_total":   0,
		"e2m_records_emitted_total": 0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] reads=%f failures=%f records=%f\n",
		time.Now().Format(time.RFC3339),
		targets["e2m_reads_total"],
		targets["e2m_read_failures_total"],
		targets["e2m_records_emitted_total"],
	)
	return nil
}

func dumpCommand(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	path := fs.String("file", "./data/records.dat", "Path to a record file")
	limit := fs.Int("limit", 0, "Maximum number of records to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	printed := 0
	return recfile.Iterate(*path, func(ts time.Time, rec []byte) error {
		if *limit > 0 && printed >= *limit {
			return nil
		}
		name, values, err := record.Decode(rec)
		if err != nil {
			fmt.Printf("[%s] undecodable record (%d bytes): %v\n",
				ts.Format(time.RFC3339Nano), len(rec), err)
			printed++
			return nil
		}
		fmt.Printf("[%s] bank %s %v\n", ts.Format(time.RFC3339Nano), name, values)
		printed++
		return nil
	})
}

func printUsage() {
	fmt.Printf(`epics-fe CLI

Usage:
  epics-fe <command> [flags]

Commands:
  run        Start the frontend using the provided config
  validate   Load and validate a config file without starting the frontend
  stats      Poll the Prometheus metrics endpoint and print live counters
  dump       Print the contents of a record file

Examples:
  epics-fe run -config ./data/config.yaml
  epics-fe validate -config ./data/config.yaml
  epics-fe stats -url http://localhost:9100/metrics -interval 1s
  epics-fe dump -file ./data/records.dat -limit 10
`)
}
