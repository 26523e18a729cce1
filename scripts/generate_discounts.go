//go:build ignore

// Generates the sample discount catalogue read by the API at startup.
//
//	go run scripts/generate_discounts.go [-dir data]
//
// Files are loaded in order and later files win, so SUMMER2024 resolves to the
// 15% entry in discounts3.gz.
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dataDir := flag.String("dir", "data", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := []struct {
		name  string
		lines []string
	}{
		{"discounts1.gz", []string{
			"SAVE10,percentage,10",
			"SUMMER2024,percentage,20",
			"FIVEOFF,fixed,5",
			"# comments and blank lines are skipped",
			"",
		}},
		{"discounts2.gz", []string{
			"WELCOME,percentage,15",
			"TENOFF,fixed,10",
			"HALFPRICE,percentage,50",
		}},
		{"discounts3.gz", []string{
			"SUMMER2024,percentage,15",
			"FREEDELIVERY,fixed,4.99",
			"BROKEN,percentage,150",
		}},
	}

	for _, f := range files {
		path := filepath.Join(*dataDir, f.name)
		if err := writeCatalogue(path, f.lines); err != nil {
			log.Fatalf("Failed to create %s: %v", f.name, err)
		}
		fmt.Printf("Created %s with %d lines\n", path, len(f.lines))
	}

	fmt.Println("\nBROKEN is out of range and will be skipped with a warning.")
}

func writeCatalogue(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(gzipWriter, line); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}

	return nil
}
