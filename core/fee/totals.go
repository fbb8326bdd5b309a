package fee

// Totals are only ever computed here, so that what is edited and what is printed never drift.

// BucketTotal sums the components of term.Buckets[bucketIndex]; an out of range index is 0.
func BucketTotal(term TermStructure, bucketIndex int) Amount {
	if bucketIndex < 0 || bucketIndex >= len(term.Buckets) {
		return Zero
	}
	total := Zero
	for _, c := range term.Buckets[bucketIndex].Components {
		total = total.Add(c.Amount)
	}
	return total
}

// TermTotal sums every component of every bucket, plus every existing bucket amount.
func TermTotal(term TermStructure) Amount {
	total := Zero
	for i := range term.Buckets {
		total = total.Add(BucketTotal(term, i))
	}
	for _, a := range term.ExistingBucketAmounts {
		total = total.Add(a)
	}
	return total
}

// MandatoryTotal is TermTotal restricted to non-optional buckets.
// Existing bucket amounts are always mandatory.
func MandatoryTotal(term TermStructure) Amount {
	total := Zero
	for i, b := range term.Buckets {
		if !b.IsOptional {
			total = total.Add(BucketTotal(term, i))
		}
	}
	for _, a := range term.ExistingBucketAmounts {
		total = total.Add(a)
	}
	return total
}

func GrandTotal(termStructures []TermStructure) Amount {
	total := Zero
	for _, t := range termStructures {
		total = total.Add(TermTotal(t))
	}
	return total
}

// AmountMatrix is a per-term, per-bucket amount table: {termID: {bucketID: amount}}.
type AmountMatrix map[string]map[string]Amount

// Get returns the amount at (termID, bucketID), 0 when unset.
func (m AmountMatrix) Get(termID, bucketID string) Amount {
	if row, ok := m[termID]; ok {
		return row[bucketID]
	}
	return Zero
}

// Set returns a copy of m with (termID, bucketID) set to amount.
func (m AmountMatrix) Set(termID, bucketID string, amount Amount) AmountMatrix {
	cp := m.Clone()
	if cp[termID] == nil {
		cp[termID] = make(map[string]Amount)
	}
	cp[termID][bucketID] = amount
	return cp
}

func (m AmountMatrix) Clone() AmountMatrix {
	cp := make(AmountMatrix, len(m))
	for termID, row := range m {
		cpRow := make(map[string]Amount, len(row))
		for bucketID, a := range row {
			cpRow[bucketID] = a
		}
		cp[termID] = cpRow
	}
	return cp
}

// MatrixTermTotal sums the term's amounts over bucketIDs.
func MatrixTermTotal(m AmountMatrix, termID string, bucketIDs []string) Amount {
	total := Zero
	for _, id := range bucketIDs {
		total = total.Add(m.Get(termID, id))
	}
	return total
}

// MatrixMandatoryTotal is MatrixTermTotal without the optional buckets.
func MatrixMandatoryTotal(m AmountMatrix, termID string, bucketIDs []string, optional map[string]bool) Amount {
	total := Zero
	for _, id := range bucketIDs {
		if !optional[id] {
			total = total.Add(m.Get(termID, id))
		}
	}
	return total
}

func MatrixGrandTotal(m AmountMatrix, termIDs, bucketIDs []string) Amount {
	total := Zero
	for _, termID := range termIDs {
		total = total.Add(MatrixTermTotal(m, termID, bucketIDs))
	}
	return total
}

// ItemsTermTotal sums the items that apply to termID.
func ItemsTermTotal(items []AggregatedFeeItem, termID string) Amount {
	total := Zero
	for _, it := range items {
		for _, id := range it.TermIDs {
			if id == termID {
				total = total.Add(it.Amount)
				break
			}
		}
	}
	return total
}

// ItemsGrandTotal sums every item once per term it applies to.
func ItemsGrandTotal(items []AggregatedFeeItem) Amount {
	total := Zero
	for _, it := range items {
		total = total.Add(it.Amount.Mul(len(it.TermIDs)))
	}
	return total
}
