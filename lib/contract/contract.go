// Package contract statically checks surface behaviors before they reach a
// Surface. Registration already rejects a behavior without
// OnComponentUpdate at runtime; the checker reports the same mistake, plus
// hooks declared with the wrong arity, without running the program.
package contract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// hookArity lists the hook methods a surface recognises with the number
// of parameters each one takes.
var hookArity = map[string]int{
	"ComponentType":      0,
	"OnComponentUpdate":  2,
	"CreateInstance":     3,
	"FindElements":       1,
	"SetupListeners":     1,
	"HandleCustomAction": 2,
	"OnComponentError":   2,
	"CleanupInstance":    1,
}

// Finding is one contract problem.
type Finding struct {
	Pos     token.Position
	Type    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Pos, f.Type, f.Message)
}

// Checker walks packages and collects findings.
type Checker struct {
	fset *token.FileSet
}

// New creates a checker.
func New() *Checker {
	return &Checker{fset: token.NewFileSet()}
}

// Check resolves the patterns (a directory, or dir/... for a tree) and
// returns findings sorted by position.
func (c *Checker) Check(patterns ...string) ([]Finding, error) {
	dirs, err := findPackages(patterns)
	if err != nil {
		return nil, err
	}

	var out []Finding
	for _, dir := range dirs {
		found, err := c.checkDir(dir)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", dir, err)
		}
		out = append(out, found...)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Line < b.Line
	})
	return out, nil
}

// findPackages resolves patterns to directories holding non-test Go files.
func findPackages(patterns []string) ([]string, error) {
	var dirs []string

	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, "/...") {
			dirs = append(dirs, pattern)
			continue
		}

		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			for _, entry := range entries {
				if !entry.IsDir() && isSource(entry.Name()) {
					dirs = append(dirs, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return dirs, nil
}

func isSource(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}

// typeInfo gathers what one named type declares in a package.
type typeInfo struct {
	pos      token.Pos
	methods  map[string]*ast.FuncDecl
	embedded []string
	foreign  bool // embeds a type from another package
}

func (c *Checker) checkDir(dir string) ([]Finding, error) {
	pkgs, err := parser.ParseDir(c.fset, dir, func(info os.FileInfo) bool {
		return isSource(info.Name())
	}, 0)
	if err != nil {
		return nil, err
	}

	var out []Finding
	for _, pkg := range pkgs {
		out = append(out, c.checkPackage(pkg)...)
	}
	return out, nil
}

func (c *Checker) checkPackage(pkg *ast.Package) []Finding {
	types := map[string]*typeInfo{}
	get := func(name string) *typeInfo {
		ti, ok := types[name]
		if !ok {
			ti = &typeInfo{methods: map[string]*ast.FuncDecl{}}
			types[name] = ti
		}
		return ti
	}

	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					ti := get(ts.Name.Name)
					ti.pos = ts.Pos()
					st, ok := ts.Type.(*ast.StructType)
					if !ok {
						continue
					}
					for _, field := range st.Fields.List {
						if len(field.Names) > 0 {
							continue
						}
						if name, local := embeddedName(field.Type); local {
							ti.embedded = append(ti.embedded, name)
						} else {
							ti.foreign = true
						}
					}
				}
			case *ast.FuncDecl:
				if d.Recv == nil || len(d.Recv.List) == 0 {
					continue
				}
				if name := receiverName(d.Recv.List[0].Type); name != "" {
					get(name).methods[d.Name.Name] = d
				}
			}
		}
	}

	var out []Finding
	for name, ti := range types {
		methods, foreign := collect(types, name, map[string]bool{})
		if _, ok := methods["ComponentType"]; !ok {
			continue
		}

		for hook, fn := range ti.methods {
			want, known := hookArity[hook]
			if !known {
				continue
			}
			if got := fn.Type.Params.NumFields(); got != want {
				out = append(out, Finding{
					Pos:     c.fset.Position(fn.Pos()),
					Type:    name,
					Message: fmt.Sprintf("%s takes %d parameters, want %d", hook, got, want),
				})
			}
		}

		if _, ok := methods["OnComponentUpdate"]; !ok && !foreign {
			pos := ti.pos
			if !pos.IsValid() {
				pos = methods["ComponentType"].Pos()
			}
			out = append(out, Finding{
				Pos:     c.fset.Position(pos),
				Type:    name,
				Message: "declares ComponentType but no OnComponentUpdate; Surface.Register will reject it",
			})
		}
	}
	return out
}

// collect returns the method set of name including methods promoted from
// embedded types in the same package. foreign reports whether anything in
// the chain embeds a type the checker cannot see.
func collect(types map[string]*typeInfo, name string, seen map[string]bool) (map[string]*ast.FuncDecl, bool) {
	ti, ok := types[name]
	if !ok || seen[name] {
		return nil, false
	}
	seen[name] = true

	methods := map[string]*ast.FuncDecl{}
	foreign := ti.foreign
	for _, emb := range ti.embedded {
		inner, f := collect(types, emb, seen)
		foreign = foreign || f
		for k, v := range inner {
			methods[k] = v
		}
	}
	for k, v := range ti.methods {
		methods[k] = v
	}
	return methods, foreign
}

func embeddedName(expr ast.Expr) (string, bool) {
	switch x := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(x.X)
	case *ast.Ident:
		return x.Name, true
	case *ast.IndexExpr:
		return embeddedName(x.X)
	case *ast.IndexListExpr:
		return embeddedName(x.X)
	}
	return "", false
}

func receiverName(expr ast.Expr) string {
	switch x := expr.(type) {
	case *ast.StarExpr:
		return receiverName(x.X)
	case *ast.Ident:
		return x.Name
	case *ast.IndexExpr:
		return receiverName(x.X)
	case *ast.IndexListExpr:
		return receiverName(x.X)
	}
	return ""
}
