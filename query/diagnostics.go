package query

import (
	"github.com/sourcegraph/go-lsp"

	"github.com/pyanalyze/pyanalyze/token"
)

// DiagnosticsOf renders every diagnostic recorded against this snapshot's
// module — both what the parser raised (mixed indentation, unresolved
// syntax) and what interpretation raised (undefined-variable, not-callable,
// invalid-mro, unresolved-import) — as lsp.Diagnostic values (spec §4.I
// "diagnostics_of(module) -> list of (severity, code, span, message)"),
// mirroring the teacher's Handler.diagnostics rendering pass.
func (snap *Snapshot) DiagnosticsOf(parseDiags []token.Diagnostic) []lsp.Diagnostic {
	out := make([]lsp.Diagnostic, 0, len(parseDiags)+len(snap.Interp.Diagnostics))
	for _, d := range parseDiags {
		out = append(out, toLSPDiagnostic(snap.File, d))
	}
	for _, d := range snap.Interp.Diagnostics {
		out = append(out, toLSPDiagnostic(snap.File, d))
	}
	return out
}

func toLSPDiagnostic(f *token.File, d token.Diagnostic) lsp.Diagnostic {
	severity := lsp.DiagnosticSeverity(lsp.Warning)
	if d.Severity == token.Error {
		severity = lsp.Error
	}
	return lsp.Diagnostic{
		Range:    toLSPRange(f, d.Span.Start, d.Span.End),
		Severity: severity,
		Source:   "pyanalyze",
		Message:  d.Message,
		Code:     d.Code,
	}
}
