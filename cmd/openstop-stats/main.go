package main

import (
	"bufio"
	"fmt"
	"io"
	golog "log"
	"os"
	"strings"
	"time"

	openstopstats "github.com/OPENER-next/OpenStop-stats"
	"github.com/OPENER-next/OpenStop-stats/config"
	"github.com/OPENER-next/OpenStop-stats/log"
	"github.com/OPENER-next/OpenStop-stats/parser/changeset"
	"github.com/OPENER-next/OpenStop-stats/pipeline"
	"github.com/OPENER-next/OpenStop-stats/replication"
	"github.com/OPENER-next/OpenStop-stats/sink"
	"github.com/OPENER-next/OpenStop-stats/stats"
)

func PrintCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Println("Available commands:")
	fmt.Println("\tconvert")
	fmt.Println("\tparse")
	fmt.Println("\tsequence")
	fmt.Println("\tversion")
}

func main() {
	golog.SetFlags(golog.LstdFlags | golog.Lshortfile)

	if len(os.Args) <= 1 {
		PrintCmds()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "convert":
		config.ParseConvert(os.Args[2:])
		convert()
	case "parse":
		config.ParseParse(os.Args[2:])
		parseFile()
	case "sequence":
		config.ParseSequence(os.Args[2:])
		state, err := replication.CurrentState(config.SequenceOptions.URL)
		if err != nil {
			log.Fatalf("reading replication state: %v", err)
		}
		fmt.Printf("%d\t%s\n", state.Sequence, state.Time.Format(time.RFC3339))
	case "version":
		fmt.Println(openstopstats.Version)
		os.Exit(0)
	default:
		PrintCmds()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
}

// convert runs the full download, decompress, parse pipeline.
func convert() {
	opts := &config.ConvertOptions

	if opts.Httpprofile != "" {
		stats.StartHTTPPProf(opts.Httpprofile)
	}
	if opts.Quiet {
		log.SetMinLevel(log.LStep)
	}

	snk, err := openRowSink(opts.Connection, opts.Table, opts.Output)
	if err != nil {
		log.Fatalf("opening row sink: %v", err)
	}

	progress := stats.StartProgress(time.Second)
	step := log.Step("Converting changesets")
	err = pipeline.Run(pipeline.Config{
		URL:          opts.Source,
		EditorFilter: opts.Editor,
		ChunkSize:    opts.ChunkSize,
		QueueDepth:   opts.QueueDepth,
		Client:       pipeline.NewDownloadClient(),
		Progress:     progress,
	}, snk)
	progress.Stop()
	step()
	if err != nil {
		log.Fatalf("conversion failed: %v", err)
	}
	log.Println("[info] Done")
}

// parseFile converts an already-decompressed changeset XML stream to
// CSV, without download or decompression.
func parseFile() {
	opts := &config.ParseOptions

	var in io.Reader = os.Stdin
	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			log.Fatalf("opening input: %v", err)
		}
		defer f.Close()
		in = f
	}

	snk, err := openRowSink("", "", opts.Output)
	if err != nil {
		log.Fatalf("opening row sink: %v", err)
	}

	p := changeset.NewParser(bufio.NewReader(in), func(cs *changeset.Changeset) error {
		if !cs.MatchesEditor(opts.Editor) {
			return nil
		}
		return snk.Append(cs.Row())
	})
	perr := p.Parse()
	if cerr := snk.Close(); perr == nil {
		perr = cerr
	}
	if perr != nil {
		log.Fatalf("parsing failed: %v", perr)
	}
}

func openRowSink(connection, table, output string) (sink.RowSink, error) {
	if connection != "" {
		return sink.NewPostgres(connection, table)
	}
	if output == "-" || strings.TrimSpace(output) == "" {
		return sink.NewCSV(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	return sink.NewCSV(f)
}
