package kiwi

import (
	"fmt"
	"strings"
)

// PrettyPrintSchema renders a schema as canonical schema text: one
// blank line between definitions, two-space field indent. The output
// parses back to the same schema, so text -> parse -> print is a
// formatter.
func PrettyPrintSchema(schema *Schema) string {
	var b strings.Builder

	if schema.Package != "" {
		fmt.Fprintf(&b, "package %s;\n", schema.Package)
	}

	for i := range schema.Definitions {
		d := &schema.Definitions[i]

		if i > 0 || schema.Package != "" {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "%s %s {\n", d.Kind, d.Name)

		for j := range d.Fields {
			f := &d.Fields[j]

			b.WriteString("  ")

			if d.Kind != KindEnum {
				b.WriteString(f.Type)

				if f.IsArray {
					b.WriteString("[]")
				}

				b.WriteString(" ")
			}

			b.WriteString(f.Name)

			if d.Kind != KindStruct {
				fmt.Fprintf(&b, " = %d", f.Value)
			}

			if f.IsDeprecated {
				b.WriteString(" [deprecated]")
			}

			b.WriteString(";\n")
		}

		b.WriteString("}\n")
	}

	return b.String()
}
