// Package noclocknow defines an analyzer that keeps wall-clock reads out of
// the packages that take an injected clock. Those packages must call their
// clock field so tests can freeze time.
package noclocknow

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to time.Now, time.Since and time.Until made in the
// cache and aggregator packages. Passing time.Now as a value, as the default
// clock does, is allowed.
var Analyzer = &analysis.Analyzer{
	Name: "noclocknow",
	Doc:  "prohibits reading the wall clock in packages with an injected clock",
	Run:  run,
}

// clocked lists the import path suffixes of packages with an injected clock.
var clocked = []string{
	"internal/cache",
	"internal/aggregator",
}

var forbidden = map[string]bool{
	"Now":   true,
	"Since": true,
	"Until": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if !isClocked(pass.Pkg.Path()) {
		return nil, nil
	}

	for _, file := range pass.Files {
		if strings.HasSuffix(pass.Fset.File(file.Pos()).Name(), "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if ok && fn.Pkg() != nil && fn.Pkg().Path() == "time" && forbidden[fn.Name()] {
				pass.Reportf(call.Pos(), "call the injected clock instead of time.%s", fn.Name())
			}

			return true
		})
	}
	return nil, nil
}

func isClocked(path string) bool {
	for _, suffix := range clocked {
		if path == suffix || strings.HasSuffix(path, "/"+suffix) {
			return true
		}
	}
	return false
}
