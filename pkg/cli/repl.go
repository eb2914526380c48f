// pkg/cli/repl.go
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ratingdb/pkg/engine"
	"ratingdb/pkg/loader"
	"ratingdb/pkg/storage"
)

// REPL provides a Read-Eval-Print loop over an engine.Engine: import a
// TSV file, run range queries, delete by key, and inspect tree/arena
// stats.
type REPL struct {
	eng *engine.Engine

	shell *Shell

	output    io.Writer
	errOutput io.Writer

	running       bool
	exitRequested bool
}

// NewREPL creates a REPL reading from stdin and writing to output/errOutput.
func NewREPL(cfg storage.Config, output, errOutput io.Writer) *REPL {
	return NewREPLWithInput(cfg, os.Stdin, output, errOutput)
}

// NewREPLWithInput creates a REPL with custom input/output streams, useful
// for scripted operation and tests.
func NewREPLWithInput(cfg storage.Config, input io.Reader, output, errOutput io.Writer) *REPL {
	eng := engine.New(cfg, errOutput)
	shell := NewShell(input, output, errOutput)
	return &REPL{
		eng:       eng,
		shell:     shell,
		output:    output,
		errOutput: errOutput,
	}
}

// Run starts the REPL loop, reading and executing one command per line
// until EOF or .exit.
func (r *REPL) Run() {
	r.running = true
	r.exitRequested = false

	fmt.Fprintln(r.output, "ratingdb version 0.1.0")
	fmt.Fprintln(r.output, "Enter \".help\" for usage hints.")

	for r.running && !r.exitRequested {
		line, eof := r.shell.ReadLine()
		if eof && line == "" {
			fmt.Fprintln(r.output)
			break
		}

		cmd := strings.TrimSpace(line)
		if cmd != "" {
			r.shell.AddHistory(cmd)
			if err := r.Execute(cmd); err != nil {
				fmt.Fprintf(r.errOutput, "error: %v\n", err)
			}
		}

		if eof {
			break
		}
	}

	r.running = false
}

// Execute runs a single command line.
func (r *REPL) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case ".exit", ".quit":
		r.exitRequested = true
		return nil
	case ".help":
		r.printHelp()
		return nil
	case "import":
		return r.cmdImport(fields[1:])
	case "find":
		return r.cmdFind(fields[1:])
	case "delete":
		return r.cmdDelete(fields[1:])
	case "stats":
		return r.cmdStats()
	case "dump":
		r.eng.DumpTree(r.output)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try .help", fields[0])
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, "Commands:")
	fmt.Fprintln(r.output, "  import <path>        load a TSV file of title/rating/votes rows")
	fmt.Fprintln(r.output, "  find <lo> <hi>       list records with numVotes in [lo, hi]")
	fmt.Fprintln(r.output, "  delete <numVotes>    delete every record with the given numVotes")
	fmt.Fprintln(r.output, "  stats                print index and arena counters")
	fmt.Fprintln(r.output, "  dump                 print the index tree structure")
	fmt.Fprintln(r.output, "  .exit                quit")
}

func (r *REPL) cmdImport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import <path>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	records, errs := loader.LoadTSV(f)
	for _, e := range errs {
		fmt.Fprintf(r.errOutput, "warning: %v\n", e)
	}
	res := r.eng.Import(records)
	fmt.Fprintf(r.output, "imported %d rows, rejected %d, %d malformed\n", res.Imported, res.Rejected, len(errs))
	return nil
}

func (r *REPL) cmdFind(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: find <lo> <hi>")
	}
	lo, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("find: lo: %w", err)
	}
	hi, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("find: hi: %w", err)
	}

	result, err := r.eng.Find(uint32(lo), uint32(hi))
	if err != nil {
		return err
	}

	r.displayRecords(result.Records)
	fmt.Fprintf(r.output, "index nodes accessed: %d, blocks accessed: %d, average rating: %.2f, elapsed: %s\n",
		result.IndexNodesAccessed, result.BlocksAccessed, result.AverageRating, result.Elapsed)
	return nil
}

func (r *REPL) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <numVotes>")
	}
	key, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	n, err := r.eng.Delete(uint32(key))
	if err != nil {
		return err
	}
	fmt.Fprintf(r.output, "deleted %d record(s)\n", n)
	return nil
}

func (r *REPL) cmdStats() error {
	stats := r.eng.Stats()
	fmt.Fprintf(r.output, "nodes: %d, overflow nodes: %d, height: %d\n", stats.NodeCount, stats.OverflowNodeCount, stats.Height)
	fmt.Fprintf(r.output, "nodes deleted: %d, overflow nodes deleted: %d\n", stats.NodesDeleted, stats.OverflowNodesDeleted)
	fmt.Fprintf(r.output, "blocks allocated: %d\n", stats.NumBlocks)
	return nil
}

// displayRecords formats results as an ASCII table, matching the
// original SQL shell's row output.
func (r *REPL) displayRecords(records []storage.Record) {
	widths := []int{11, 9, 14, 6}
	headers := []string{"tconst", "recordID", "averageRating", "votes"}

	r.printSeparator(widths)
	r.printRow(headers, widths)
	r.printSeparator(widths)
	for _, rec := range records {
		row := []string{
			rec.TconstString(),
			strconv.FormatUint(uint64(rec.RecordID), 10),
			strconv.FormatFloat(float64(rec.AverageRating), 'f', 1, 32),
			strconv.FormatUint(uint64(rec.NumVotes), 10),
		}
		r.printRow(row, widths)
	}
	r.printSeparator(widths)
	fmt.Fprintf(r.output, "%d row(s)\n", len(records))
}

func (r *REPL) printSeparator(widths []int) {
	fmt.Fprint(r.output, "+")
	for _, w := range widths {
		fmt.Fprint(r.output, strings.Repeat("-", w+2))
		fmt.Fprint(r.output, "+")
	}
	fmt.Fprintln(r.output)
}

func (r *REPL) printRow(values []string, widths []int) {
	fmt.Fprint(r.output, "|")
	for i, val := range values {
		w := widths[i]
		fmt.Fprintf(r.output, " %-*s |", w, val)
	}
	fmt.Fprintln(r.output)
}
