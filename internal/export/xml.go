package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// XML document layout:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<fuelRecords>
//	  <record n="1">
//	    <Plate>AB123CD</Plate>
//	    <FulfillmentDate>01/02/23</FulfillmentDate>
//	    ...
//	    <TotalAmount/>                  <!-- absent values self-close -->
//	  </record>
//	</fuelRecords>
const (
	xmlRootElement   = "fuelRecords"
	xmlRecordElement = "record"
	xmlIndexAttr     = "n"
	xmlIndent        = "  "
)

// element is a node of the output document. An element holds either a text
// value or children, never both.
type element struct {
	name     string
	attrs    [][2]string
	value    string
	children []element
}

// WriteXML writes the records as an XML document, numbering records from 1.
func WriteXML(w io.Writer, records []types.Record) error {
	var buffer bytes.Buffer
	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")

	buffer.WriteString("<" + xmlRootElement + ">\n")
	columns := types.Columns()
	for i, r := range records {
		el := element{
			name:  xmlRecordElement,
			attrs: [][2]string{{xmlIndexAttr, strconv.Itoa(i + 1)}},
		}
		for j, value := range row(r) {
			el.children = append(el.children, element{name: columns[j], value: value})
		}
		writeElement(&buffer, el, 1)
	}
	buffer.WriteString("</" + xmlRootElement + ">\n")

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// writeElement writes an element and its children with indentation.
func writeElement(buffer *bytes.Buffer, el element, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(xmlIndent)
	}

	buffer.WriteString("<")
	buffer.WriteString(el.name)
	for _, attr := range el.attrs {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr[0], escapeXML(attr[1]))
	}

	if len(el.children) == 0 && el.value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")
	if el.value != "" {
		buffer.WriteString(escapeXML(el.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range el.children {
			writeElement(buffer, child, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(xmlIndent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(el.name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	for _, r := range s {
		switch r {
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
