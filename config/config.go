package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/OPENER-next/OpenStop-stats/replication"
)

// Config is the optional JSON config file. Values from the command
// line take precedence over the file, the file over the defaults.
type Config struct {
	Source         string `json:"source"`
	Editor         string `json:"editor"`
	Output         string `json:"output"`
	Connection     string `json:"connection"`
	Table          string `json:"table"`
	ChunkSize      int    `json:"chunksize"`
	QueueDepth     int    `json:"queuedepth"`
	ReplicationURL string `json:"replication_url"`
}

const defaultSource = "https://planet.openstreetmap.org/planet/changesets-latest.osm.bz2"
const defaultOutput = "output.csv"
const defaultTable = "changesets"
const defaultChunkSize = 1024 * 1024
const defaultQueueDepth = 10

var ConvertFlags = flag.NewFlagSet("convert", flag.ExitOnError)
var ParseFlags = flag.NewFlagSet("parse", flag.ExitOnError)
var SequenceFlags = flag.NewFlagSet("sequence", flag.ExitOnError)

type _ConvertOptions struct {
	Source      string
	Editor      string
	Output      string
	Connection  string
	Table       string
	ChunkSize   int
	QueueDepth  int
	ConfigFile  string
	Httpprofile string
	Quiet       bool
}

type _ParseOptions struct {
	Editor string
	Input  string
	Output string
}

type _SequenceOptions struct {
	URL string
}

var ConvertOptions = _ConvertOptions{}
var ParseOptions = _ParseOptions{}
var SequenceOptions = _SequenceOptions{}

func (o *_ConvertOptions) updateFromConfig() error {
	conf := &Config{
		Source:     defaultSource,
		Output:     defaultOutput,
		Table:      defaultTable,
		ChunkSize:  defaultChunkSize,
		QueueDepth: defaultQueueDepth,
	}

	if o.ConfigFile != "" {
		f, err := os.Open(o.ConfigFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&conf); err != nil {
			return err
		}
	}

	if o.Source == defaultSource && conf.Source != "" {
		o.Source = conf.Source
	}
	if o.Editor == "" {
		o.Editor = conf.Editor
	}
	if o.Output == defaultOutput && conf.Output != "" {
		o.Output = conf.Output
	}
	if o.Connection == "" {
		o.Connection = conf.Connection
	}
	if o.Table == defaultTable && conf.Table != "" {
		o.Table = conf.Table
	}
	if o.ChunkSize == defaultChunkSize && conf.ChunkSize != 0 {
		o.ChunkSize = conf.ChunkSize
	}
	if o.QueueDepth == defaultQueueDepth && conf.QueueDepth != 0 {
		o.QueueDepth = conf.QueueDepth
	}
	return nil
}

func (o *_ConvertOptions) check() []error {
	errs := []error{}
	if o.Source == "" {
		errs = append(errs, errors.New("missing source URL"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunksize must be positive"))
	}
	if o.QueueDepth <= 0 {
		errs = append(errs, errors.New("queuedepth must be positive"))
	}
	if o.Output == "" && o.Connection == "" {
		errs = append(errs, errors.New("missing output file or connection"))
	}
	return errs
}

func UsageConvert() {
	fmt.Fprintf(os.Stderr, "Usage: %s %s [args]\n\n", os.Args[0], os.Args[1])
	ConvertFlags.PrintDefaults()
	os.Exit(2)
}

func UsageParse() {
	fmt.Fprintf(os.Stderr, "Usage: %s %s [args]\n\n", os.Args[0], os.Args[1])
	ParseFlags.PrintDefaults()
	os.Exit(2)
}

func UsageSequence() {
	fmt.Fprintf(os.Stderr, "Usage: %s %s [args]\n\n", os.Args[0], os.Args[1])
	SequenceFlags.PrintDefaults()
	os.Exit(2)
}

func init() {
	ConvertFlags.Usage = UsageConvert
	ParseFlags.Usage = UsageParse
	SequenceFlags.Usage = UsageSequence

	ConvertFlags.StringVar(&ConvertOptions.Source, "source", defaultSource, "URL of the compressed changeset planet file")
	ConvertFlags.StringVar(&ConvertOptions.Editor, "editor", "", "only keep changesets whose created_by starts with this prefix")
	ConvertFlags.StringVar(&ConvertOptions.Output, "output", defaultOutput, "CSV output file, - for stdout")
	ConvertFlags.StringVar(&ConvertOptions.Connection, "connection", "", "write rows to this PostgreSQL database instead of CSV")
	ConvertFlags.StringVar(&ConvertOptions.Table, "table", defaultTable, "table name for -connection")
	ConvertFlags.IntVar(&ConvertOptions.ChunkSize, "chunksize", defaultChunkSize, "max bytes per queue chunk")
	ConvertFlags.IntVar(&ConvertOptions.QueueDepth, "queuedepth", defaultQueueDepth, "chunk capacity of the stage queues")
	ConvertFlags.StringVar(&ConvertOptions.ConfigFile, "config", "", "config (json)")
	ConvertFlags.StringVar(&ConvertOptions.Httpprofile, "httpprofile", "", "bind address for profile server")
	ConvertFlags.BoolVar(&ConvertOptions.Quiet, "quiet", false, "quiet log output")

	ParseFlags.StringVar(&ParseOptions.Editor, "editor", "", "only keep changesets whose created_by starts with this prefix")
	ParseFlags.StringVar(&ParseOptions.Input, "input", "-", "XML input file, - for stdin")
	ParseFlags.StringVar(&ParseOptions.Output, "output", "-", "CSV output file, - for stdout")

	SequenceFlags.StringVar(&SequenceOptions.URL, "url", replication.DefaultURL, "base URL of the changeset replication")
}

func ParseConvert(args []string) {
	if err := ConvertFlags.Parse(args); err != nil {
		log.Fatal(err)
	}
	if err := ConvertOptions.updateFromConfig(); err != nil {
		log.Fatal(err)
	}
	errs := ConvertOptions.check()
	if len(errs) != 0 {
		reportErrors(errs)
		UsageConvert()
	}
}

func ParseParse(args []string) {
	if err := ParseFlags.Parse(args); err != nil {
		log.Fatal(err)
	}
}

func ParseSequence(args []string) {
	if err := SequenceFlags.Parse(args); err != nil {
		log.Fatal(err)
	}
}

func reportErrors(errs []error) {
	fmt.Println("errors in config/options:")
	for _, err := range errs {
		fmt.Printf("\t%s\n", err)
	}
	os.Exit(1)
}
