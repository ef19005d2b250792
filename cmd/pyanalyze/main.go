// Command pyanalyze is a thin CLI front end over the Query API (spec §4.I
// Non-goals: "no LSP transport is specified here"). It analyzes a single
// file (plus whatever it imports, resolved against --search_path) and
// prints one of type_of/definition_of/references_of/diagnostics_of,
// following the teacher's single-binary-per-tool layout (tools/*/main.go)
// and its go-cli-init flag-struct convention rather than a flag-per-line
// stdlib flag.FlagSet.
package main

import (
	"fmt"
	"os"

	"github.com/peterebden/go-cli-init/v5/flags"
	logging "gopkg.in/op/go-logging.v1"
	"github.com/sourcegraph/go-lsp"

	"github.com/pyanalyze/pyanalyze/session"
)

var log = logging.MustGetLogger("pyanalyze")

var opts = struct {
	Usage string

	SearchPath []string `short:"I" long:"search_path" description:"Additional directory to search when resolving imports"`
	StdlibRoot []string `long:"stdlib_root" description:"Directory containing standard-library stub/source modules"`
	Module     string   `short:"m" long:"module" description:"Dotted name to analyze the input file as" default:"__main__"`

	Args struct {
		File string `positional-arg-name:"file" description:"Python source file to analyze" required:"true"`
	} `positional-args:"true" required:"true"`

	TypeOf struct {
		Line      int `long:"line" description:"0-based line number" required:"true"`
		Character int `long:"character" description:"0-based column (UTF-16 code unit)" required:"true"`
	} `command:"type-of" description:"Print the value types observed at a source position"`

	DefinitionOf struct {
		Line      int `long:"line" description:"0-based line number" required:"true"`
		Character int `long:"character" description:"0-based column" required:"true"`
	} `command:"definition-of" description:"Print the definition site(s) of the name at a source position"`

	ReferencesOf struct {
		Line             int  `long:"line" description:"0-based line number" required:"true"`
		Character        int  `long:"character" description:"0-based column" required:"true"`
		IncludeDeclaration bool `long:"include_declaration" description:"Include the definition site itself in the results"`
	} `command:"references-of" description:"Print every read/write site of the name at a source position"`

	Diagnostics struct {
	} `command:"diagnostics" description:"Print every diagnostic recorded for the analyzed file"`
}{
	Usage: `
pyanalyze is a static analysis engine for Python: it resolves imports, builds
an abstract-value lattice over a module's names via the Cartesian Product
Algorithm, and answers editor-style queries (type_of, definition_of,
references_of, diagnostics_of) against the result.

This binary is a minimal CLI over that engine, not a language server.
`,
}

func main() {
	command := flags.ParseFlagsOrDie("pyanalyze", &opts)

	src, err := os.ReadFile(opts.Args.File)
	if err != nil {
		log.Fatalf("reading %s: %s", opts.Args.File, err)
	}

	sess := session.New(session.Config{
		SearchPaths: opts.SearchPath,
		StdlibRoots: opts.StdlibRoot,
	})

	entry, err := sess.Analyze(opts.Module, opts.Args.File, src)
	if err != nil {
		log.Fatalf("analyzing %s: %s", opts.Args.File, err)
	}

	snap, err := sess.Snapshot(opts.Module)
	if err != nil {
		log.Fatalf("building snapshot: %s", err)
	}

	switch command {
	case "type-of":
		set, ok := snap.TypeOf(lsp.Position{Line: opts.TypeOf.Line, Character: opts.TypeOf.Character})
		if !ok {
			fmt.Println("no expression at that position")
			return
		}
		for _, v := range set.Values() {
			fmt.Println(v.Type())
		}

	case "definition-of":
		for _, loc := range snap.DefinitionOf(lsp.Position{Line: opts.DefinitionOf.Line, Character: opts.DefinitionOf.Character}) {
			printLocation(loc)
		}

	case "references-of":
		pos := lsp.Position{Line: opts.ReferencesOf.Line, Character: opts.ReferencesOf.Character}
		locs, err := sess.ReferencesOf(opts.Module, pos, opts.ReferencesOf.IncludeDeclaration)
		if err != nil {
			log.Fatalf("finding references: %s", err)
		}
		for _, loc := range locs {
			printLocation(loc)
		}

	case "diagnostics":
		for _, d := range snap.DiagnosticsOf(entry.ParseDiags) {
			fmt.Printf("%d:%d: %s: %s [%s]\n", d.Range.Start.Line+1, d.Range.Start.Character+1, severityName(d.Severity), d.Message, d.Code)
		}

	default:
		log.Fatalf("unknown command %q", command)
	}
}

func printLocation(loc lsp.Location) {
	fmt.Printf("%s:%d:%d\n", loc.URI, loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}

func severityName(sev lsp.DiagnosticSeverity) string {
	switch sev {
	case lsp.Error:
		return "error"
	case lsp.Warning:
		return "warning"
	case lsp.Information:
		return "info"
	default:
		return "hint"
	}
}
