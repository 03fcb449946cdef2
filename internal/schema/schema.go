package schema

import (
	_ "embed"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Namespace is the XML namespace of ASTERIX schema documents.
const Namespace = "http://www.profv.de/asterix"

// NodeType identifies the encoding construct a schema node describes.
type NodeType int

const (
	TypeRoot NodeType = iota
	TypePresenceBitmap
	TypeExtensionBitmap
	TypeComposite
	TypeList
	TypeNumber
	TypeBool
	TypeEnum
	TypeUnknown
)

var typeNames = map[NodeType]string{
	TypeRoot:            "schema",
	TypePresenceBitmap:  "fspec",
	TypeExtensionBitmap: "fx",
	TypeComposite:       "multi",
	TypeList:            "list",
	TypeNumber:          "number",
	TypeBool:            "bool",
	TypeEnum:            "enum",
	TypeUnknown:         "unknown",
}

var typesByName = func() map[string]NodeType {
	m := make(map[string]NodeType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the schema-document element name for the type.
func (t NodeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is one element of the schema tree. Nodes are built once by Load and
// never mutated afterwards; every decode shares the same tree.
type Node struct {
	Type        NodeType
	ID          string
	Octets      int
	RShift      uint
	Factor      float64
	HasFactor   bool
	FailureInfo string
	Signed      bool
	Children    []*Node
}

// Schema is the loaded document: the root node plus the category index over
// its immediate children.
type Schema struct {
	Root       *Node
	categories map[string]*Node
}

// Load parses a schema XML document and validates it structurally.
func Load(doc []byte) (*Schema, error) {
	var raw xmlNode
	if err := xml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	root, err := buildNode(raw)
	if err != nil {
		return nil, err
	}
	if root.Type != TypeRoot {
		return nil, fmt.Errorf("schema document root must be <schema>, got <%s>", root.Type)
	}
	s := &Schema{Root: root, categories: make(map[string]*Node, len(root.Children))}
	for _, child := range root.Children {
		if child.ID == "" {
			return nil, fmt.Errorf("top-level %s node lacks a category id", child.Type)
		}
		s.categories[child.ID] = child
	}
	return s, nil
}

// Category returns the subtree describing records of the given category.
func (s *Schema) Category(cat uint8) (*Node, bool) {
	node, ok := s.categories[CategoryKey(cat)]
	return node, ok
}

// CategoryKey formats a category number the way the schema indexes it,
// e.g. 62 becomes "cat062".
func CategoryKey(cat uint8) string {
	return fmt.Sprintf("cat%03d", cat)
}

type xmlNode struct {
	XMLName     xml.Name
	ID          string    `xml:"id,attr"`
	Octets      string    `xml:"octets,attr"`
	RShift      string    `xml:"rshift,attr"`
	Factor      string    `xml:"factor,attr"`
	FailureInfo string    `xml:"failure_info,attr"`
	Signed      string    `xml:"signed,attr"`
	Children    []xmlNode `xml:",any"`
}

func buildNode(raw xmlNode) (*Node, error) {
	if raw.XMLName.Space != "" && raw.XMLName.Space != Namespace {
		return nil, fmt.Errorf("element <%s> has foreign namespace %q", raw.XMLName.Local, raw.XMLName.Space)
	}
	typ, ok := typesByName[raw.XMLName.Local]
	if !ok {
		return nil, fmt.Errorf("unknown schema element <%s>", raw.XMLName.Local)
	}
	node := &Node{
		Type:        typ,
		ID:          raw.ID,
		FailureInfo: raw.FailureInfo,
	}
	if raw.Octets != "" {
		octets, err := strconv.Atoi(raw.Octets)
		if err != nil || octets <= 0 {
			return nil, fmt.Errorf("node %q: invalid octets %q", raw.ID, raw.Octets)
		}
		node.Octets = octets
	}
	if raw.RShift != "" {
		rshift, err := strconv.ParseUint(raw.RShift, 10, 6)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid rshift %q", raw.ID, raw.RShift)
		}
		node.RShift = uint(rshift)
	}
	if raw.Factor != "" {
		factor, err := strconv.ParseFloat(raw.Factor, 64)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid factor %q", raw.ID, raw.Factor)
		}
		node.Factor = factor
		node.HasFactor = true
	}
	if raw.Signed != "" {
		signed, err := strconv.ParseBool(raw.Signed)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid signed %q", raw.ID, raw.Signed)
		}
		node.Signed = signed
	}
	if err := validateLeaf(node); err != nil {
		return nil, err
	}
	for _, child := range raw.Children {
		built, err := buildNode(child)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, built)
	}
	return node, nil
}

func validateLeaf(node *Node) error {
	switch node.Type {
	case TypeNumber:
		if node.ID == "" {
			return fmt.Errorf("number node lacks an id")
		}
		if node.Octets == 0 {
			return fmt.Errorf("number node %q lacks octets", node.ID)
		}
		if node.Octets > 8 {
			return fmt.Errorf("number node %q is %d octets wide, at most 8 supported", node.ID, node.Octets)
		}
	case TypeList, TypeBool, TypeEnum, TypeUnknown:
		if node.ID == "" {
			return fmt.Errorf("%s node lacks an id", node.Type)
		}
		if node.Octets == 0 && node.FailureInfo == "" {
			return fmt.Errorf("%s node %q lacks octets", node.Type, node.ID)
		}
	case TypeExtensionBitmap:
		if node.ID == "" {
			return fmt.Errorf("fx node lacks an id")
		}
	}
	return nil
}

//go:embed asterix-schema.xml
var defaultSchemaXML []byte

// Default returns the schema document bundled with the library.
func Default() (*Schema, error) {
	return Load(defaultSchemaXML)
}
