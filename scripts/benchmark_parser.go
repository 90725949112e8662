package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonRow pairs a current result with its baseline counterpart.
type ComparisonRow struct {
	Name        string
	CurrentNs   float64
	BaselineNs  float64
	Delta       float64 // baseline / current; above 1.0 means faster now
	CurrentMem  int64
	BaselineMem int64
	CurrentOnly bool
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	baselineFile = flag.String("baseline", "", "Benchmark output from a previous run to compare against")
	outputFile   = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet        = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	current, err := parseFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(current))
	}

	var baseline []BenchmarkResult
	if *baselineFile != "" {
		baseline, err = parseFile(*baselineFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading baseline: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Parsed %d baseline results\n", len(baseline))
		}
	}

	rows := compareRuns(current, baseline)
	report := generateMarkdownReport(rows, baseline != nil)

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(report), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}
}

func parseFile(path string) ([]BenchmarkResult, error) {
	if path == "" {
		return parseBenchmarks(bufio.NewScanner(os.Stdin)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseBenchmarks(bufio.NewScanner(f)), nil
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkReaderNext-8    5000000    250.0 ns/op    16 B/op    2 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		results = append(results, BenchmarkResult{
			Name:        trimProcSuffix(matches[1]),
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// trimProcSuffix drops the trailing -N GOMAXPROCS marker.
func trimProcSuffix(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 {
		return name
	}
	if _, err := strconv.Atoi(name[idx+1:]); err != nil {
		return name
	}
	return name[:idx]
}

func compareRuns(current, baseline []BenchmarkResult) []ComparisonRow {
	base := make(map[string]BenchmarkResult, len(baseline))
	for _, r := range baseline {
		base[r.Name] = r
	}

	var rows []ComparisonRow
	for _, cur := range current {
		row := ComparisonRow{
			Name:        cur.Name,
			CurrentNs:   cur.NsPerOp,
			CurrentMem:  cur.BytesPerOp,
			CurrentOnly: true,
		}
		if prev, ok := base[cur.Name]; ok {
			row.BaselineNs = prev.NsPerOp
			row.BaselineMem = prev.BytesPerOp
			row.CurrentOnly = false
			if cur.NsPerOp > 0 {
				row.Delta = prev.NsPerOp / cur.NsPerOp
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if categoryOf(rows[i].Name) != categoryOf(rows[j].Name) {
			return categoryOf(rows[i].Name) < categoryOf(rows[j].Name)
		}
		return rows[i].Name < rows[j].Name
	})

	return rows
}

// categoryOf maps a benchmark name onto the subsystem it exercises.
func categoryOf(name string) string {
	n := strings.ToLower(strings.TrimPrefix(name, "Benchmark"))

	switch {
	case strings.Contains(n, "tableindex") || strings.Contains(n, "handle") ||
		strings.Contains(n, "guess"):
		return "Prediction"
	case strings.Contains(n, "pool") || strings.Contains(n, "slab"):
		return "Pooling"
	case strings.Contains(n, "reader") || strings.Contains(n, "stream"):
		return "Streaming"
	default:
		return "Other"
	}
}

func generateMarkdownReport(rows []ComparisonRow, withBaseline bool) string {
	var sb strings.Builder

	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	faster := 0
	slower := 0
	newOnes := 0
	totalDelta := 0.0

	for _, row := range rows {
		if row.CurrentOnly {
			newOnes++
			continue
		}
		if row.Delta > 1.0 {
			faster++
		} else if row.Delta < 1.0 {
			slower++
		}
		totalDelta += row.Delta
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(rows)))
	if withBaseline {
		compared := len(rows) - newOnes
		avgDelta := 0.0
		if compared > 0 {
			avgDelta = totalDelta / float64(compared)
		}
		sb.WriteString(fmt.Sprintf("- **Compared against baseline**: %d\n", compared))
		sb.WriteString(fmt.Sprintf("  - faster now: %d\n", faster))
		sb.WriteString(fmt.Sprintf("  - slower now: %d\n", slower))
		sb.WriteString(fmt.Sprintf("  - Average speedup: **%.2fx**\n", avgDelta))
		sb.WriteString(fmt.Sprintf("- **New benchmarks**: %d\n", newOnes))
	}
	sb.WriteString("\n")

	sb.WriteString("## Detailed Results\n\n")
	if withBaseline {
		sb.WriteString("| Benchmark | Category | ns/op | baseline ns/op | Speedup | B/op |\n")
		sb.WriteString("|-----------|----------|-------|----------------|---------|------|\n")
	} else {
		sb.WriteString("| Benchmark | Category | ns/op | B/op |\n")
		sb.WriteString("|-----------|----------|-------|------|\n")
	}

	for _, row := range rows {
		if withBaseline {
			if row.CurrentOnly {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | *N/A* | *new* | %s |\n",
					row.Name,
					categoryOf(row.Name),
					formatNumber(row.CurrentNs),
					formatBytes(row.CurrentMem),
				))
			} else {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2fx | %s vs %s |\n",
					row.Name,
					categoryOf(row.Name),
					formatNumber(row.CurrentNs),
					formatNumber(row.BaselineNs),
					row.Delta,
					formatBytes(row.CurrentMem),
					formatBytes(row.BaselineMem),
				))
			}
		} else {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				row.Name,
				categoryOf(row.Name),
				formatNumber(row.CurrentNs),
				formatBytes(row.CurrentMem),
			))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: faster than the baseline run\n")
	sb.WriteString("- **Memory**: lower is better\n")
	sb.WriteString("- Run `go test -bench . -benchmem ./...` to produce input for this tool\n")

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
