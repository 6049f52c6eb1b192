package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cuongbtq/printq/internal/domain"
)

// DefaultConfigPath is used when neither --config nor PRINTQ_CONFIG_PATH is set
const DefaultConfigPath = "printq.yaml"

// Options holds the parsed command line
type Options struct {
	File     string
	Copies   int
	Infinite bool
	NoSweep  bool
	Printer  string

	List  bool
	Queue string
	Add   string
	Name  string

	ListLib bool
	RunLib  string

	Config   string
	LogLevel string
}

// EffectiveCopies applies --infinite over --copies
func (o *Options) EffectiveCopies() int {
	if o.Infinite {
		return domain.InfiniteCopies
	}
	return o.Copies
}

// HasCommand reports whether any command flag was given
func (o *Options) HasCommand() bool {
	return o.ListLib || o.RunLib != "" || o.List || o.Add != "" || o.Queue != "" || o.File != ""
}

const usageExamples = `
Examples:
  %[1]s --file model.3mf --copies 5          # Print 5 copies with auto-eject
  %[1]s --file model.3mf --copies 1          # Single print + eject
  %[1]s --file model.3mf --infinite          # Infinite loop (1 at a time)
  %[1]s --file model.3mf --printer 2         # Print on 2nd printer
  %[1]s --list                               # Show queue
  %[1]s --queue "MyJob" --printer "P1S_01"   # Start job on named printer
  %[1]s --add model.3mf --name Job1 --copies 10  # Add to queue
  %[1]s --list-lib                           # Show job library
  %[1]s --run-lib 1                          # Copy library job 1 into the queue
`

// ParseArgs parses args (without the program name). Usage goes to output.
func ParseArgs(name string, args []string, output io.Writer) (*Options, *flag.FlagSet, error) {
	opts := &Options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	defaultConfig := os.Getenv("PRINTQ_CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = DefaultConfigPath
	}

	stringVar(fs, &opts.File, "", "3MF file to print", "file", "f")
	intVar(fs, &opts.Copies, domain.DefaultCopies, "Number of copies", "copies", "c")
	boolVar(fs, &opts.Infinite, "Infinite loop mode", "infinite", "i")
	boolVar(fs, &opts.NoSweep, "Disable sweep (push off bed)", "no-sweep")
	stringVar(fs, &opts.Printer, "", "Target printer (index, name, or serial)", "printer", "p")

	boolVar(fs, &opts.List, "List queue", "list", "l")
	stringVar(fs, &opts.Queue, "", "Start job from queue (by name or index)", "queue", "q")
	stringVar(fs, &opts.Add, "", "Add file to queue", "add", "a")
	stringVar(fs, &opts.Name, "", "Job name (for --add)", "name", "n")

	boolVar(fs, &opts.ListLib, "List recurring jobs library", "list-lib")
	stringVar(fs, &opts.RunLib, "", "Add a library job to the queue (by name or index)", "run-lib")

	stringVar(fs, &opts.Config, defaultConfig, "Path to configuration file", "config")
	stringVar(fs, &opts.LogLevel, "warn", "Log level (debug, info, warn, error)", "log-level")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of %s:\n", name)
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), usageExamples, name)
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	return opts, fs, nil
}

func stringVar(fs *flag.FlagSet, p *string, value, usage string, names ...string) {
	for _, n := range names {
		fs.StringVar(p, n, value, usage)
	}
}

func intVar(fs *flag.FlagSet, p *int, value int, usage string, names ...string) {
	for _, n := range names {
		fs.IntVar(p, n, value, usage)
	}
}

func boolVar(fs *flag.FlagSet, p *bool, usage string, names ...string) {
	for _, n := range names {
		fs.BoolVar(p, n, false, usage)
	}
}
