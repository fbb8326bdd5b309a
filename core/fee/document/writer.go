package document

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/fee"
)

//go:embed templates/document.gohtml
var templatesFS embed.FS

var htmlTmpl = template.Must(template.ParseFS(templatesFS, "templates/document.gohtml"))

// WriteHTML writes doc as a standalone printable HTML page.
func WriteHTML(w io.Writer, doc Document) error {
	if err := htmlTmpl.ExecuteTemplate(w, "document.gohtml", doc); err != nil {
		return errors.Wrap(err, "executing document template")
	}
	return nil
}

// WriteText writes doc as aligned plain text.
func WriteText(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(tw, format, args...)
	}

	if doc.School != nil && doc.School.Name != "" {
		p("%s\t\t\n", doc.School.Name)
	}
	p("%s\t\t\n", doc.Title)
	p("Academic year: %s\t\t\n", doc.AcademicYear)
	p("\t\t\n")

	for _, sec := range doc.Sections {
		for _, row := range sec.Rows {
			switch row.Kind {
			case RowHeader:
				p("%s\t\t\n", strings.ToUpper(row.Label))
			case RowSubtotal:
				p("%s\t%s\t\n", row.Label, row.Amount.Format())
				p("\t\t\n")
			default:
				label := "  " + row.Label
				if row.Optional {
					label += " (optional)"
				}
				p("%s\t%s\t\n", label, row.Amount.Format())
			}
		}
	}
	p("GRAND TOTAL\t%s\t\n", doc.GrandTotal.Format())

	for _, n := range doc.LatePayment {
		p("Late payment %s\t%s\t\n", n.Term, n.Amount.Format())
	}
	for _, n := range doc.EarlyDiscount {
		p("Early payment discount %s\t%s\t\n", n.Term, n.Amount.Format())
	}
	for _, pm := range doc.PaymentModes {
		p("%s: %s\t\t\n", pm.Name, pm.Instructions)
	}

	return errors.Wrap(tw.Flush(), "flushing document")
}

func sortedIDs(m map[string]fee.Amount) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
