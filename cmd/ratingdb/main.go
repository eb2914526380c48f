// cmd/ratingdb/main.go
//
// ratingdb - interactive shell over the movie-rating block store and
// B+ tree index.
//
// Usage:
//
//	ratingdb [-disk-size bytes] [-block-size bytes] [-import file.tsv]
//
// Enter ".help" inside the shell for the command list.
package main

import (
	"flag"
	"fmt"
	"os"

	"ratingdb/pkg/cli"
	"ratingdb/pkg/storage"
)

func main() {
	diskSize := flag.Int("disk-size", storage.DefaultDiskSize, "total simulated arena size in bytes")
	blockSize := flag.Int("block-size", storage.DefaultBlockSize, "block size in bytes")
	importPath := flag.String("import", "", "TSV file to import at startup")
	flag.Parse()

	cfg := storage.Config{DiskSize: *diskSize, BlockSize: *blockSize}
	repl := cli.NewREPL(cfg, os.Stdout, os.Stderr)

	if *importPath != "" {
		if err := repl.Execute("import " + *importPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	repl.Run()
}
