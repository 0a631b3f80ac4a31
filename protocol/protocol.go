// Package protocol defines the types necessary for unmarshalling a
// protocol-specification XML file, and embeds the specifications of
// every interface implemented by this module.
package protocol

import (
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

//go:embed xml/*.xml
var files embed.FS

type Protocol struct {
	Name      string `xml:"name,attr"`
	Copyright string `xml:"copyright"`

	Interfaces []Interface `xml:"interface"`
}

// Interface returns the interface with the given name.
func (p Protocol) Interface(name string) (Interface, bool) {
	for _, i := range p.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return Interface{}, false
}

type Interface struct {
	Name        string      `xml:"name,attr"`
	Version     int         `xml:"version,attr"`
	Description Description `xml:"description"`

	Requests []Op   `xml:"request"`
	Events   []Op   `xml:"event"`
	Enums    []Enum `xml:"enum"`
}

type Description struct {
	Summary string `xml:"summary,attr"`
	Full    string `xml:",chardata"`
}

type Op struct {
	Name        string      `xml:"name,attr"`
	Type        string      `xml:"type,attr"`
	Since       int         `xml:"since,attr"`
	Description Description `xml:"description"`

	Args []Arg `xml:"arg"`
}

// IsDestructor reports whether the op destroys the object it is sent
// to.
func (op Op) IsDestructor() bool {
	return op.Type == "destructor"
}

type Arg struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`

	Type      string `xml:"type,attr"`
	Interface string `xml:"interface,attr"`
	Version   int    `xml:"version,attr"`
	AllowNull bool   `xml:"allow-null,attr"`
	Enum      string `xml:"enum,attr"`
}

type Enum struct {
	Name        string      `xml:"name,attr"`
	Description Description `xml:"description"`

	Entries []Entry `xml:"entry"`
}

type Entry struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`
	Value   string `xml:"value,attr"`
}

func (e Entry) Int() (int, error) {
	v, err := strconv.ParseInt(e.Value, 0, 0)
	return int(v), err
}

// Decode reads a protocol specification from r.
func Decode(r io.Reader) (proto Protocol, err error) {
	d := xml.NewDecoder(r)
	err = d.Decode(&proto)
	return proto, err
}

// Load decodes one of the embedded protocol specifications by file
// name, such as "blur.xml".
func Load(name string) (Protocol, error) {
	file, err := files.Open("xml/" + name)
	if err != nil {
		return Protocol{}, err
	}
	defer file.Close()

	proto, err := Decode(file)
	if err != nil {
		return proto, fmt.Errorf("decode %v: %w", name, err)
	}
	return proto, nil
}
