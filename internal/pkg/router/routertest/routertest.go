// Package routertest checks the swag annotations of inbound handlers against
// the routes a Router actually serves.
package routertest

import (
	"go/ast"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

// notFound is the message the router writes when no route matches.
const notFound = "Recurso no encontrado"

var (
	reRouter = regexp.MustCompile(`^@Router\s+(\S+)\s+\[(\w+)\]$`)
	reParam  = regexp.MustCompile(`\{[^}]+\}`)
)

// Doc is the annotation block of one HTTPEndpoint method.
type Doc struct {
	Handler string
	Summary string
	Method  string
	Path    string
}

// ParseDocs returns a Doc for every exported HTTPEndpoint method declared in
// files, annotated or not.
func ParseDocs(t testing.TB, files ...string) []Doc {
	t.Helper()

	fset := token.NewFileSet()
	var docs []Doc
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}

		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || receiver(fn) != "HTTPEndpoint" {
				continue
			}
			docs = append(docs, parseDoc(fn))
		}
	}

	return docs
}

func parseDoc(fn *ast.FuncDecl) Doc {
	d := Doc{Handler: fn.Name.Name}
	if fn.Doc == nil {
		return d
	}

	for _, c := range fn.Doc.List {
		line := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if v, ok := strings.CutPrefix(line, "@Summary "); ok {
			d.Summary = strings.TrimSpace(v)
			continue
		}
		if m := reRouter.FindStringSubmatch(line); m != nil {
			d.Path, d.Method = m[1], strings.ToUpper(m[2])
		}
	}

	return d
}

func receiver(fn *ast.FuncDecl) string {
	typ := fn.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	if id, ok := typ.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// Mounted reports whether h serves method on the documented path, with every
// {param} filled in.
func Mounted(h http.Handler, method, path string) bool {
	req := httptest.NewRequest(method, reParam.ReplaceAllString(path, "x"), strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	switch rec.Code {
	case http.StatusMethodNotAllowed:
		return false
	case http.StatusNotFound:
		return !strings.Contains(rec.Body.String(), notFound)
	}
	return true
}
