// Package document projects fee structures into printable tables.
// It holds no state and computes no totals of its own: every total comes from package fee.
package document

import (
	"github.com/trezcool/masomo-admin/core/fee"
)

type RowKind string

const (
	RowHeader    RowKind = "header"
	RowComponent RowKind = "component"
	RowExisting  RowKind = "existing"
	RowItem      RowKind = "item"
	RowSubtotal  RowKind = "subtotal"
)

type (
	Row struct {
		Kind        RowKind    `json:"kind"`
		Label       string     `json:"label"`
		Bucket      string     `json:"bucket,omitempty"`
		Description string     `json:"description,omitempty"`
		Amount      fee.Amount `json:"amount"`
		Optional    bool       `json:"optional,omitempty"`
	}

	Section struct {
		Term     string     `json:"term"`
		DueDate  string     `json:"dueDate,omitempty"`
		Rows     []Row      `json:"rows"`
		Subtotal fee.Amount `json:"subtotal"`
	}

	Document struct {
		Title         string             `json:"title"`
		AcademicYear  string             `json:"academicYear"`
		BoardingType  string             `json:"boardingType,omitempty"`
		School        *fee.SchoolDetails `json:"school,omitempty"`
		PaymentModes  []fee.PaymentMode  `json:"paymentModes,omitempty"`
		Sections      []Section          `json:"sections"`
		GrandTotal    fee.Amount         `json:"grandTotal"`
		LatePayment   []TermNote         `json:"latePayment,omitempty"`
		EarlyDiscount []TermNote         `json:"earlyDiscount,omitempty"`
	}

	// TermNote is a per-term scheduling remark printed under the table.
	TermNote struct {
		Term     string     `json:"term"`
		Amount   fee.Amount `json:"amount"`
		Deadline string     `json:"deadline,omitempty"`
	}
)

// Render projects a draft form. Components need a name and a positive amount to be printed;
// existing bucket amounts need a positive amount and are labelled with the catalog bucket name.
func Render(form fee.FeeStructureForm, feeBuckets []fee.FeeBucket) Document {
	doc := Document{
		Title:        form.Name,
		AcademicYear: form.AcademicYear,
		BoardingType: form.BoardingType,
		School:       form.SchoolDetails,
		PaymentModes: form.PaymentModes,
		Sections:     make([]Section, 0, len(form.TermStructures)),
	}

	for _, ts := range form.TermStructures {
		sec := Section{Term: ts.Term, DueDate: ts.DueDate}
		sec.Rows = append(sec.Rows, Row{Kind: RowHeader, Label: ts.Term})

		for _, b := range ts.Buckets {
			for _, c := range b.Components {
				if c.Name == "" || !c.Amount.IsPositive() {
					continue
				}
				sec.Rows = append(sec.Rows, Row{
					Kind:        RowComponent,
					Label:       c.Name,
					Bucket:      b.Name,
					Description: c.Description,
					Amount:      c.Amount,
					Optional:    b.IsOptional,
				})
			}
		}

		for _, id := range sortedIDs(ts.ExistingBucketAmounts) {
			amount := ts.ExistingBucketAmounts[id]
			if !amount.IsPositive() {
				continue
			}
			label := id
			if fb, ok := fee.FindBucket(feeBuckets, id); ok {
				label = fb.Name
			}
			sec.Rows = append(sec.Rows, Row{Kind: RowExisting, Label: label, Bucket: label, Amount: amount})
		}

		sec.Subtotal = fee.TermTotal(ts)
		sec.Rows = append(sec.Rows, Row{Kind: RowSubtotal, Label: "Total " + ts.Term, Amount: sec.Subtotal})
		doc.Sections = append(doc.Sections, sec)

		if ts.LatePaymentFee.IsPositive() {
			doc.LatePayment = append(doc.LatePayment, TermNote{Term: ts.Term, Amount: ts.LatePaymentFee, Deadline: ts.DueDate})
		}
		if ts.EarlyPaymentDiscount.IsPositive() {
			doc.EarlyDiscount = append(doc.EarlyDiscount, TermNote{Term: ts.Term, Amount: ts.EarlyPaymentDiscount, Deadline: ts.EarlyPaymentDeadline})
		}
	}

	doc.GrandTotal = fee.GrandTotal(form.TermStructures)
	return doc
}

// RenderStructure projects a persisted structure: every item applies to every one of its terms.
func RenderStructure(fs fee.FeeStructure) Document {
	doc := Document{
		Title:        fs.Name,
		AcademicYear: fs.AcademicYear.Name,
		Sections:     make([]Section, 0, len(fs.Terms)),
	}
	items := fs.AggregatedItems()

	for _, t := range fs.Terms {
		sec := Section{Term: t.Name}
		sec.Rows = append(sec.Rows, Row{Kind: RowHeader, Label: t.Name})
		for _, it := range fs.Items {
			if !it.Amount.IsPositive() {
				continue
			}
			sec.Rows = append(sec.Rows, Row{
				Kind:     RowItem,
				Label:    it.FeeBucket.Name,
				Bucket:   it.FeeBucket.Name,
				Amount:   it.Amount,
				Optional: !it.IsMandatory,
			})
		}
		sec.Subtotal = fee.ItemsTermTotal(items, t.ID)
		sec.Rows = append(sec.Rows, Row{Kind: RowSubtotal, Label: "Total " + t.Name, Amount: sec.Subtotal})
		doc.Sections = append(doc.Sections, sec)
	}

	doc.GrandTotal = fee.ItemsGrandTotal(items)
	return doc
}
