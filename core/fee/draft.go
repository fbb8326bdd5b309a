package fee

import (
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid value")
	ErrBucketNotFound  = errors.New("fee bucket not found")
)

// Draft is the immutable value threaded through a wizard.
// Every mutation returns a new Draft and leaves the receiver untouched.
type Draft struct {
	Form    FeeStructureForm `json:"form"`
	Catalog []FeeBucket      `json:"catalog"`
}

// NewDraft returns a draft holding a single empty term.
func NewDraft(catalog []FeeBucket) Draft {
	return Draft{
		Form: FeeStructureForm{
			BoardingType:   BoardingDay,
			TermStructures: []TermStructure{newTermStructure("")},
		},
		Catalog: append([]FeeBucket(nil), catalog...),
	}
}

func newTermStructure(academicYear string) TermStructure {
	return TermStructure{
		AcademicYear:          academicYear,
		Buckets:               []Bucket{},
		ExistingBucketAmounts: map[string]Amount{},
	}
}

func (d Draft) clone() Draft {
	cp := d
	cp.Catalog = cloneFeeBuckets(d.Catalog)
	cp.Form.GradeLevelIDs = append([]string(nil), d.Form.GradeLevelIDs...)
	cp.Form.PaymentModes = append([]PaymentMode(nil), d.Form.PaymentModes...)
	if d.Form.SchoolDetails != nil {
		sd := *d.Form.SchoolDetails
		cp.Form.SchoolDetails = &sd
	}
	cp.Form.TermStructures = make([]TermStructure, len(d.Form.TermStructures))
	for i, t := range d.Form.TermStructures {
		cp.Form.TermStructures[i] = cloneTerm(t)
	}
	return cp
}

func cloneTerm(t TermStructure) TermStructure {
	cp := t
	cp.Buckets = make([]Bucket, len(t.Buckets))
	for i, b := range t.Buckets {
		cp.Buckets[i] = cloneBucket(b)
	}
	cp.ExistingBucketAmounts = make(map[string]Amount, len(t.ExistingBucketAmounts))
	for k, v := range t.ExistingBucketAmounts {
		cp.ExistingBucketAmounts[k] = v
	}
	return cp
}

func cloneBucket(b Bucket) Bucket {
	cp := b
	cp.Components = append([]Component{}, b.Components...)
	return cp
}

func cloneFeeBuckets(buckets []FeeBucket) []FeeBucket {
	if buckets == nil {
		return nil
	}
	cp := make([]FeeBucket, len(buckets))
	for i, b := range buckets {
		cp[i] = b
		cp[i].Components = append([]Component(nil), b.Components...)
	}
	return cp
}

func (d Draft) term(i int) (*TermStructure, error) {
	if i < 0 || i >= len(d.Form.TermStructures) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "term %d", i)
	}
	return &d.Form.TermStructures[i], nil
}

func (d Draft) bucket(t, b int) (*Bucket, error) {
	term, err := d.term(t)
	if err != nil {
		return nil, err
	}
	if b < 0 || b >= len(term.Buckets) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "term %d bucket %d", t, b)
	}
	return &term.Buckets[b], nil
}

// AddTerm appends an empty term belonging to the draft's academic year.
func (d Draft) AddTerm() Draft {
	cp := d.clone()
	cp.Form.TermStructures = append(cp.Form.TermStructures, newTermStructure(d.Form.AcademicYear))
	return cp
}

// RemoveTerm removes term i; removing the last remaining term is a no-op.
func (d Draft) RemoveTerm(i int) (Draft, error) {
	if _, err := d.term(i); err != nil {
		return d, err
	}
	if len(d.Form.TermStructures) == 1 {
		return d, nil
	}
	cp := d.clone()
	cp.Form.TermStructures = append(cp.Form.TermStructures[:i], cp.Form.TermStructures[i+1:]...)
	return cp, nil
}

func (d Draft) UpdateTermField(i int, field, value string) (Draft, error) {
	cp := d.clone()
	term, err := cp.term(i)
	if err != nil {
		return d, err
	}
	switch field {
	case "term":
		term.Term = value
	case "academicYear":
		term.AcademicYear = value
	case "dueDate":
		term.DueDate = value
	case "latePaymentFee":
		term.LatePaymentFee = ParseAmount(value)
	case "earlyPaymentDiscount":
		term.EarlyPaymentDiscount = ParseAmount(value)
	case "earlyPaymentDeadline":
		term.EarlyPaymentDeadline = value
	default:
		return d, errors.Wrapf(ErrUnknownField, "term field %q", field)
	}
	return cp, nil
}

// AddBucket attaches the first active catalog bucket not yet used in term t,
// or an id-less placeholder when every catalog bucket is taken.
func (d Draft) AddBucket(t int) (Draft, error) {
	cp := d.clone()
	term, err := cp.term(t)
	if err != nil {
		return d, err
	}

	used := make(map[string]bool)
	for _, b := range term.Buckets {
		if b.ID != "" {
			used[b.ID] = true
		}
	}
	for id := range term.ExistingBucketAmounts {
		used[id] = true
	}

	bucket := Bucket{Components: []Component{{Amount: Zero}}}
	for _, fb := range cp.Catalog {
		if fb.IsActive && !used[fb.ID] {
			bucket = bucketFromCatalog(fb)
			break
		}
	}
	term.Buckets = append(term.Buckets, bucket)
	return cp, nil
}

func (d Draft) RemoveBucket(t, b int) (Draft, error) {
	cp := d.clone()
	if _, err := cp.bucket(t, b); err != nil {
		return d, err
	}
	term := &cp.Form.TermStructures[t]
	term.Buckets = append(term.Buckets[:b], term.Buckets[b+1:]...)
	return cp, nil
}

func (d Draft) UpdateBucket(t, b int, field, value string) (Draft, error) {
	cp := d.clone()
	bucket, err := cp.bucket(t, b)
	if err != nil {
		return d, err
	}
	switch field {
	case "id":
		bucket.ID = value
	case "type":
		bucket.Type = value
	case "name":
		bucket.Name = value
	case "description":
		bucket.Description = value
	case "isOptional":
		opt, err := strconv.ParseBool(value)
		if err != nil {
			return d, errors.Wrapf(ErrInvalidValue, "isOptional %q", value)
		}
		bucket.IsOptional = opt
	default:
		return d, errors.Wrapf(ErrUnknownField, "bucket field %q", field)
	}
	return cp, nil
}

func (d Draft) AddComponent(t, b int) (Draft, error) {
	cp := d.clone()
	bucket, err := cp.bucket(t, b)
	if err != nil {
		return d, err
	}
	bucket.Components = append(bucket.Components, Component{Amount: Zero})
	return cp, nil
}

func (d Draft) RemoveComponent(t, b, c int) (Draft, error) {
	cp := d.clone()
	bucket, err := cp.bucket(t, b)
	if err != nil {
		return d, err
	}
	if c < 0 || c >= len(bucket.Components) {
		return d, errors.Wrapf(ErrIndexOutOfRange, "term %d bucket %d component %d", t, b, c)
	}
	bucket.Components = append(bucket.Components[:c], bucket.Components[c+1:]...)
	return cp, nil
}

func (d Draft) UpdateComponent(t, b, c int, field, value string) (Draft, error) {
	cp := d.clone()
	bucket, err := cp.bucket(t, b)
	if err != nil {
		return d, err
	}
	if c < 0 || c >= len(bucket.Components) {
		return d, errors.Wrapf(ErrIndexOutOfRange, "term %d bucket %d component %d", t, b, c)
	}
	comp := &bucket.Components[c]
	switch field {
	case "name":
		comp.Name = value
	case "description":
		comp.Description = value
	case "amount":
		comp.Amount = ParseAmount(value)
	case "category":
		comp.Category = value
	default:
		return d, errors.Wrapf(ErrUnknownField, "component field %q", field)
	}
	return cp, nil
}

// AddExistingBucket appends the catalog bucket bucketID to term t.
// The new bucket holds one zero component mirroring the catalog bucket's name and description.
func (d Draft) AddExistingBucket(t int, bucketID string) (Draft, error) {
	fb, ok := FindBucket(d.Catalog, bucketID)
	if !ok {
		return d, errors.Wrapf(ErrBucketNotFound, "id %q", bucketID)
	}
	cp := d.clone()
	term, err := cp.term(t)
	if err != nil {
		return d, err
	}
	term.Buckets = append(term.Buckets, Bucket{
		ID:          fb.ID,
		Name:        fb.Name,
		Description: fb.Description,
		Components:  []Component{{Name: fb.Name, Description: fb.Description, Amount: Zero}},
	})
	return cp, nil
}

func (d Draft) SetExistingBucketAmount(t int, bucketID, value string) (Draft, error) {
	if _, ok := FindBucket(d.Catalog, bucketID); !ok {
		return d, errors.Wrapf(ErrBucketNotFound, "id %q", bucketID)
	}
	cp := d.clone()
	term, err := cp.term(t)
	if err != nil {
		return d, err
	}
	term.ExistingBucketAmounts[bucketID] = ParseAmount(value)
	return cp, nil
}

func (d Draft) RemoveExistingBucketAmount(t int, bucketID string) (Draft, error) {
	cp := d.clone()
	term, err := cp.term(t)
	if err != nil {
		return d, err
	}
	delete(term.ExistingBucketAmounts, bucketID)
	return cp, nil
}

// WithCatalogBucket adds a freshly created backend bucket to the catalog (replacing one with the same id).
func (d Draft) WithCatalogBucket(fb FeeBucket) Draft {
	cp := d.clone()
	for i := range cp.Catalog {
		if cp.Catalog[i].ID == fb.ID {
			cp.Catalog[i] = fb
			return cp
		}
	}
	cp.Catalog = append(cp.Catalog, fb)
	return cp
}

func bucketFromCatalog(fb FeeBucket) Bucket {
	b := Bucket{ID: fb.ID, Name: fb.Name, Description: fb.Description}
	if len(fb.Components) > 0 {
		b.Components = append([]Component{}, fb.Components...)
	} else {
		b.Components = []Component{{Name: fb.Name, Description: fb.Description, Amount: Zero}}
	}
	return b
}
