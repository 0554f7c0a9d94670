// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command verify-logging fails when library packages bypass internal/log:
// importing the standard "log" package or zerolog's global logger, or
// printing with fmt.Print* outside of commands.
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

var forbiddenImports = map[string]string{
	"log":                        "use internal/log",
	"github.com/rs/zerolog/log":  "use internal/log instead of the zerolog global logger",
	"github.com/sirupsen/logrus": "use internal/log",
}

func main() {
	patterns := []string{"./internal/..."}
	if len(os.Args) > 1 {
		patterns = os.Args[1:]
	}

	violations, err := Analyze(".", patterns...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "logging policy violations found:")
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
}

// Analyze loads the packages matching patterns relative to dir and returns
// one line per violation.
func Analyze(dir string, patterns ...string) ([]string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		commandPkg := pkg.Name == "main"
		for _, file := range pkg.Syntax {
			filename := pkg.Fset.Position(file.Pos()).Filename
			if strings.HasSuffix(filename, "_test.go") {
				continue
			}

			for _, imp := range file.Imports {
				path, _ := strconv.Unquote(imp.Path.Value)
				if hint, bad := forbiddenImports[path]; bad {
					violations = append(violations, formatViolation(dir, pkg.Fset, imp.Pos(), fmt.Sprintf("forbidden import %q (%s)", path, hint)))
				}
			}

			if commandPkg {
				continue
			}
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				if name, ok := fmtPrint(call, pkg.TypesInfo); ok {
					violations = append(violations, formatViolation(dir, pkg.Fset, call.Pos(), "forbidden call fmt."+name+" in library code (log instead)"))
				}
				return true
			})
		}
	}
	return violations, nil
}

// fmtPrint reports calls of fmt.Print, fmt.Printf and fmt.Println.
func fmtPrint(call *ast.CallExpr, info *types.Info) (string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	fn, ok := info.ObjectOf(sel.Sel).(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "fmt" {
		return "", false
	}
	switch fn.Name() {
	case "Print", "Printf", "Println":
		return fn.Name(), true
	}
	return "", false
}

func formatViolation(dir string, fset *token.FileSet, pos token.Pos, msg string) string {
	p := fset.Position(pos)
	filename := p.Filename
	if rel, err := filepath.Rel(dir, filename); err == nil {
		filename = rel
	}
	return fmt.Sprintf("%s:%d: %s", filename, p.Line, msg)
}
