// wlgen generates Go constant tables from Wayland protocol XML files:
// interface names and versions, request and event opcodes, request
// names for debugging output, and enum values.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"log"
	"os"
	"strings"
	"text/template"

	"deedles.dev/wlkde/protocol"
)

type Context struct {
	Package   string
	Prefixes  []string
	Protocols []protocol.Protocol
}

const tmpl = `// Code generated by wlgen. DO NOT EDIT.

package {{.Package}}
{{range $proto := .Protocols}}{{range $i := $proto.Interfaces}}{{$id := ident $i.Name}}
const (
	{{$id}}Interface = {{printf "%q" $i.Name}}
	{{$id}}Version = {{$i.Version}}
)
{{if $i.Requests}}
const ({{range $op, $r := $i.Requests}}
	op{{$id}}{{camel $r.Name}} uint16 = {{$op}}{{end}}
)

var {{unexport $id}}Requests = [...]string{ {{- range $i.Requests}}
	{{printf "%q" .Name}},{{end}}
}
{{end}}{{if $i.Events}}
const ({{range $op, $e := $i.Events}}
	ev{{$id}}{{camel $e.Name}} uint16 = {{$op}}{{end}}
)
{{end}}{{range $e := $i.Enums}}
const ({{range entries $e}}
	{{$id}}{{camel $e.Name}}{{camel .Name}} = {{.Value}}{{end}}
)
{{end}}{{end}}{{end}}`

func (ctx Context) generate() ([]byte, error) {
	t, err := template.New("protocol").Funcs(template.FuncMap{
		"ident":    ctx.ident,
		"camel":    ctx.camel,
		"unexport": ctx.unexport,
		"entries":  ctx.enumEntries,
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, ctx)
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("format output: %w", err)
	}
	return src, nil
}

func loadXML(path string) (proto protocol.Protocol, err error) {
	file, err := os.Open(path)
	if err != nil {
		return proto, err
	}
	defer file.Close()

	return protocol.Decode(file)
}

func main() {
	xmlfiles := flag.String("xml", "", "comma-separated protocol XML files")
	out := flag.String("out", "", "output file (default stdout)")
	pkg := flag.String("pkg", "wl", "output package name")
	prefix := flag.String("prefix", "wl_", "comma-separated interface name prefixes to strip")
	flag.Parse()

	if *xmlfiles == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := Context{
		Package:  *pkg,
		Prefixes: strings.Split(*prefix, ","),
	}
	for _, path := range strings.Split(*xmlfiles, ",") {
		proto, err := loadXML(path)
		if err != nil {
			log.Fatalf("load XML %q: %v", path, err)
		}
		ctx.Protocols = append(ctx.Protocols, proto)
	}

	src, err := ctx.generate()
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(src)
		return
	}
	err = os.WriteFile(*out, src, 0644)
	if err != nil {
		log.Fatalf("write output: %v", err)
	}
}
