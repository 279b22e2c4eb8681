package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/netlistdb/pkg/errors"
	"github.com/matzehuels/netlistdb/pkg/netlist"
	"github.com/matzehuels/netlistdb/pkg/netlist/lexer"
)

// Options configures parsing.
type Options struct {
	// LibraryCells names leaf cells that may be instantiated without a
	// module definition.
	LibraryCells []string
	// Top forces the top-level module. Empty selects the single module that
	// no other module instantiates, if there is exactly one.
	Top string
	// Workers bounds concurrent module parsing. Values below 2 parse serially.
	Workers int
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// ParseFile reads and parses the netlist at path. The file handle is
// released before parsing starts.
func ParseFile(ctx context.Context, path string, opts Options) (*netlist.Graph, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, path, string(src), opts)
}

// ReadSource reads a netlist source file, mapping a missing file to
// FILE_NOT_FOUND.
func ReadSource(path string) ([]byte, error) {
	if err := errors.ValidateSourcePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return src, nil
}

// Parse lexes, parses and resolves src. file is used in positions only.
func Parse(ctx context.Context, file, src string, opts Options) (*netlist.Graph, error) {
	logger := opts.logger()
	start := time.Now()

	toks, err := lexer.New(file, src).Tokens()
	if err != nil {
		return nil, err
	}
	toks = slices.DeleteFunc(toks, func(t lexer.Token) bool { return t.Kind == lexer.Comment })

	spans, errs := split(toks)
	results, err := parseSpans(ctx, toks, spans, opts.Workers)
	if err != nil {
		return nil, err
	}

	g := netlist.New(opts.LibraryCells)
	failed := make(map[string]bool)
	anonymous := false
	for _, r := range results {
		if r.err != nil {
			errs.Add(r.err)
			if r.name == "" {
				anonymous = true
			}
			failed[r.name] = true
			continue
		}
		errs.Extend(errors.All(g.AddModule(r.mod)))
	}

	// A module that failed to parse is missing from the table, so
	// references to it are follow-up errors. Without its name every
	// reference is suspect.
	if !anonymous {
		for _, e := range errors.All(g.Resolve(opts.Top)) {
			if e.Code == errors.ErrCodeUnresolvedReference && len(e.Names) > 0 && failed[e.Names[0]] {
				continue
			}
			errs.Add(e)
		}
	}
	if errs.Len() > 0 {
		errs.Sort()
		logger.Debug("parse failed", "file", file, "errors", errs.Len())
		return nil, errs.Err()
	}

	logger.Debug("parsed netlist",
		"file", file,
		"modules", g.Len(),
		"workers", max(opts.Workers, 1),
		"elapsed", time.Since(start).Round(time.Microsecond))
	return g, nil
}

// span is the token range [start, end) of one module declaration.
type span struct {
	start, end int
}

// split cuts the token stream into module spans. A span ends after its
// endmodule, or before the next module keyword or EOF when endmodule is
// missing; the module parser reports the latter. Tokens between modules
// are reported and skipped.
func split(toks []lexer.Token) ([]span, errors.List) {
	var spans []span
	var errs errors.List
	i := 0
	for toks[i].Kind != lexer.EOF {
		if !toks[i].Is(lexer.Keyword, "module") {
			errs.Add(errors.At(errors.ErrCodeParse, toks[i].Pos, "expected module, found %s", toks[i].Describe()))
			for toks[i].Kind != lexer.EOF && !toks[i].Is(lexer.Keyword, "module") {
				i++
			}
			continue
		}
		start := i
		for i++; toks[i].Kind != lexer.EOF && !toks[i].Is(lexer.Keyword, "module"); i++ {
			if toks[i].Is(lexer.Keyword, "endmodule") {
				i++
				break
			}
		}
		spans = append(spans, span{start: start, end: i})
	}
	return spans, errs
}

type spanResult struct {
	name string
	mod  *netlist.Module
	err  *errors.Error
}

func parseSpans(ctx context.Context, toks []lexer.Token, spans []span, workers int) ([]spanResult, error) {
	results := make([]spanResult, len(spans))
	parseOne := func(i int) {
		sp := spans[i]
		if sp.start+1 < sp.end && toks[sp.start+1].Kind == lexer.Identifier {
			results[i].name = toks[sp.start+1].Text
		}
		p := newModuleParser(toks[sp.start:sp.end], toks[sp.end].Pos)
		results[i].mod, results[i].err = p.parse()
	}

	if workers < 2 {
		for i := range spans {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			parseOne(i)
		}
		return results, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range spans {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parseOne(i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
