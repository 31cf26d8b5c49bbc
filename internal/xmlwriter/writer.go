// =============================================================================
// Tax Hall Analytics - XML Writer Module
// =============================================================================
//
// This module renders an aggregate Summary as an XML document for consumers
// that ingest XML (archival systems, downstream reporting tools).
//
// XML STRUCTURE:
//   <summary id="..." source="..." totalRecords="120" successRate="91.67"
//            guidanceRate="40.00" avgDurationLong="32.5">
//     <topBusinessTypes>
//       <item name="社保费缴纳" count="30"/>
//     </topBusinessTypes>
//     <topReasons>...</topReasons>
//     <operatorStats>
//       <operator name="张三" count="40" successRate="95.00"/>
//     </operatorStats>
//     <subjectTypeDist>...</subjectTypeDist>
//     <taxAuthorityDist>...</taxAuthorityDist>
//     <businessBySubject>
//       <subject name="个人">
//         <item name="社保费缴纳" count="20"/>
//       </subject>
//     </businessBySubject>
//   </summary>
//
// Empty lists are written as self-closing elements.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootAttributes are additional attributes for the root element, written
	// in the given order.
	RootAttributes []Attr

	// RateDecimals is the number of decimals for percentages and averages.
	// Default: 2
	RateDecimals int
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RateDecimals:          2,
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Attr is a single attribute. Order is preserved on output.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the output tree.
type Element struct {
	Name       string
	Attributes []Attr
	Children   []Element
	Value      string
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders the summary as an XML document.
//
// PARAMETERS:
//   - s: The summary to render.
//   - options: Formatting options.
//
// RETURNS:
//   - The XML document as a byte slice.
func Generate(s types.Summary, options GenerateOptions) []byte {
	root := BuildDocument(s, options)

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}
	indent := options.Indent
	if indent == "" {
		indent = "  "
	}
	writeElement(&buffer, root, indent, 0)
	return buffer.Bytes()
}

// BuildDocument builds the element tree for a summary.
func BuildDocument(s types.Summary, options GenerateOptions) Element {
	rate := func(v float64) string {
		return strconv.FormatFloat(v, 'f', options.RateDecimals, 64)
	}

	root := Element{Name: "summary"}
	root.Attributes = append(root.Attributes, options.RootAttributes...)
	root.Attributes = append(root.Attributes,
		Attr{"totalRecords", strconv.Itoa(s.TotalRecords)},
		Attr{"successRate", rate(s.SuccessRate)},
		Attr{"guidanceRate", rate(s.GuidanceRate)},
		Attr{"avgDurationLong", rate(s.AvgDurationLong)},
	)

	root.Children = append(root.Children,
		countList("topBusinessTypes", s.TopBusinessTypes),
		countList("topReasons", s.TopReasons),
	)

	operators := Element{Name: "operatorStats"}
	for _, op := range s.OperatorStats {
		operators.Children = append(operators.Children, Element{
			Name: "operator",
			Attributes: []Attr{
				{"name", op.Name},
				{"count", strconv.Itoa(op.Count)},
				{"successRate", rate(op.SuccessRate)},
			},
		})
	}
	root.Children = append(root.Children, operators,
		valueList("subjectTypeDist", s.SubjectTypeDist),
		valueList("taxAuthorityDist", s.TaxAuthorityDist),
	)

	cross := Element{Name: "businessBySubject"}
	for _, sb := range s.BusinessBySubject {
		subject := countList("subject", sb.Data)
		subject.Attributes = []Attr{{"name", sb.Subject}}
		cross.Children = append(cross.Children, subject)
	}
	root.Children = append(root.Children, cross)

	return root
}

func countList(name string, items []types.NameCount) Element {
	el := Element{Name: name}
	for _, it := range items {
		el.Children = append(el.Children, Element{
			Name:       "item",
			Attributes: []Attr{{"name", it.Name}, {"count", strconv.Itoa(it.Count)}},
		})
	}
	return el
}

func valueList(name string, items []types.NameValue) Element {
	el := Element{Name: name}
	for _, it := range items {
		el.Children = append(el.Children, Element{
			Name:       "item",
			Attributes: []Attr{{"name", it.Name}, {"value", strconv.Itoa(it.Value)}},
		})
	}
	return el
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element Element, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.Name)
	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name, escapeXML(attr.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Runes outside the XML 1.0
// Char production are dropped; tab and line breaks become character
// references so attribute values keep them.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		if !isXMLChar(r) {
			continue
		}
		switch r {
		case '\t':
			buffer.WriteString("&#x9;")
		case '\n':
			buffer.WriteString("&#xA;")
		case '\r':
			buffer.WriteString("&#xD;")
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
