package fee

// Boarding types
const (
	BoardingDay      = "day"
	BoardingBoarding = "boarding"
	BoardingBoth     = "both"
)

var BoardingTypes = []string{BoardingDay, BoardingBoarding, BoardingBoth}

type (
	// Component is one line item inside a bucket.
	// Category is a free-text tag used for grouping in the UI only.
	Component struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Amount      Amount `json:"amount"`
		Category    string `json:"category"`
	}

	// Bucket is a named grouping of components within one term.
	// A bucket without ID is a placeholder: it has no backend identity yet and is never aggregated.
	Bucket struct {
		ID          string      `json:"id,omitempty"`
		Type        string      `json:"type"`
		Name        string      `json:"name"`
		Description string      `json:"description"`
		IsOptional  bool        `json:"isOptional"`
		Components  []Component `json:"components"`
	}

	// TermStructure is one term's fee configuration within a draft.
	// ExistingBucketAmounts is keyed by backend bucket id and bypasses Buckets.
	TermStructure struct {
		Term                  string            `json:"term"`
		AcademicYear          string            `json:"academicYear"`
		DueDate               string            `json:"dueDate" validate:"isodate"`
		LatePaymentFee        Amount            `json:"latePaymentFee"`
		EarlyPaymentDiscount  Amount            `json:"earlyPaymentDiscount"`
		EarlyPaymentDeadline  string            `json:"earlyPaymentDeadline" validate:"isodate"`
		Buckets               []Bucket          `json:"buckets"`
		ExistingBucketAmounts map[string]Amount `json:"existingBucketAmounts"`
	}

	SchoolDetails struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Motto   string `json:"motto"`
		LogoURL string `json:"logoUrl"`
	}

	PaymentMode struct {
		Name         string `json:"name"`
		Instructions string `json:"instructions"`
	}

	// FeeStructureForm is the whole draft.
	// SchoolDetails and PaymentModes are only used when rendering documents.
	FeeStructureForm struct {
		Name           string          `json:"name" validate:"notblank"`
		AcademicYear   string          `json:"academicYear" validate:"notblank"`
		BoardingType   string          `json:"boardingType" validate:"omitempty,boardingtype"`
		GradeLevelIDs  []string        `json:"gradeLevelIds"`
		TermStructures []TermStructure `json:"termStructures" validate:"dive"`
		SchoolDetails  *SchoolDetails  `json:"schoolDetails,omitempty"`
		PaymentModes   []PaymentMode   `json:"paymentModes,omitempty"`
	}

	// FeeBucket is the backend's bucket entity; its Components are templates.
	FeeBucket struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description"`
		IsActive    bool        `json:"isActive"`
		Components  []Component `json:"components,omitempty"`
	}

	// Ref is the {id, name} shape the backend uses for nested entities.
	Ref struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	GradeLevel struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		SchoolType string `json:"schoolType,omitempty"`
	}

	FeeItem struct {
		ID          string `json:"id"`
		FeeBucket   Ref    `json:"feeBucket"`
		Amount      Amount `json:"amount"`
		IsMandatory bool   `json:"isMandatory"`
	}

	// FeeStructure is the persisted backend entity.
	FeeStructure struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		AcademicYear Ref       `json:"academicYear"`
		Terms        []Ref     `json:"terms"`
		GradeLevels  []Ref     `json:"gradeLevels"`
		Items        []FeeItem `json:"items"`
		IsActive     bool      `json:"isActive"`
	}

	// AggregatedFeeItem is the unit sent to the backend create mutation. It is never stored in a draft.
	AggregatedFeeItem struct {
		FeeBucketID string   `json:"feeBucketId"`
		Amount      Amount   `json:"amount"`
		IsMandatory bool     `json:"isMandatory"`
		TermIDs     []string `json:"termIds"`
	}

	NewFeeStructure struct {
		Name           string              `json:"name"`
		AcademicYearID string              `json:"academicYearId"`
		GradeLevelIDs  []string            `json:"gradeLevelIds"`
		Items          []AggregatedFeeItem `json:"items"`
	}

	// UpdateFeeStructure only carries the fields to change.
	UpdateFeeStructure struct {
		Name          *string  `json:"name,omitempty"`
		IsActive      *bool    `json:"isActive,omitempty"`
		GradeLevelIDs []string `json:"gradeLevelIds,omitempty"`
	}

	NewFeeBucket struct {
		Name        string `json:"name" validate:"required,notblank,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	UpdateFeeBucket struct {
		Name        string `json:"name" validate:"omitempty,notblank,max=100"`
		Description string `json:"description" validate:"max=500"`
		IsActive    *bool  `json:"isActive"`
	}
)

// TermIDs returns the ids of the terms the structure applies to.
func (fs FeeStructure) TermIDs() []string {
	ids := make([]string, 0, len(fs.Terms))
	for _, t := range fs.Terms {
		ids = append(ids, t.ID)
	}
	return ids
}

// AggregatedItems expands the structure's items back into aggregated items covering all of its terms.
func (fs FeeStructure) AggregatedItems() []AggregatedFeeItem {
	termIDs := fs.TermIDs()
	items := make([]AggregatedFeeItem, 0, len(fs.Items))
	for _, it := range fs.Items {
		items = append(items, AggregatedFeeItem{
			FeeBucketID: it.FeeBucket.ID,
			Amount:      it.Amount,
			IsMandatory: it.IsMandatory,
			TermIDs:     append([]string(nil), termIDs...),
		})
	}
	return items
}

// FindBucket looks a bucket up by id.
func FindBucket(buckets []FeeBucket, id string) (FeeBucket, bool) {
	for _, b := range buckets {
		if b.ID == id {
			return b, true
		}
	}
	return FeeBucket{}, false
}
