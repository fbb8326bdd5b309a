package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucket(id, name string, optional bool, amounts ...string) Bucket {
	b := Bucket{ID: id, Name: name, IsOptional: optional}
	for _, a := range amounts {
		b.Components = append(b.Components, Component{Name: name, Amount: ParseAmount(a)})
	}
	return b
}

func term(name string, buckets []Bucket, existing map[string]string) TermStructure {
	ts := TermStructure{Term: name, Buckets: buckets, ExistingBucketAmounts: map[string]Amount{}}
	for id, a := range existing {
		ts.ExistingBucketAmounts[id] = ParseAmount(a)
	}
	return ts
}

func TestAggregate(t *testing.T) {
	allTerms := []string{"t1", "t2", "t3"}

	tests := []struct {
		name        string
		terms       []TermStructure
		termIDs     []string
		wantErr     error
		wantItems   []AggregatedFeeItem
		wantSkipped int
	}{
		{
			name:    "no terms ids",
			terms:   []TermStructure{term("Term 1", []Bucket{bucket("b1", "Tuition", false, "100")}, nil)},
			wantErr: ErrNoValidTerms,
		},
		{
			name:    "no buckets",
			terms:   []TermStructure{term("Term 1", nil, nil)},
			termIDs: allTerms,
			wantErr: ErrNoValidBuckets,
		},
		{
			name:        "only placeholders",
			terms:       []TermStructure{term("Term 1", []Bucket{bucket("", "Lab", false, "5000")}, nil)},
			termIDs:     allTerms,
			wantErr:     ErrNoValidBuckets,
			wantSkipped: 1,
		},
		{
			name:    "single bucket sums components",
			terms:   []TermStructure{term("Term 1", []Bucket{bucket("b1", "Tuition", false, "6000", "4000", "oops")}, nil)},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b1", Amount: NewAmount(10000), IsMandatory: true, TermIDs: allTerms},
			},
		},
		{
			name: "max amount across bucket and existing amounts",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("b", "Tuition", false, "100")}, nil),
				term("Term 2", nil, map[string]string{"b": "150"}),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b", Amount: NewAmount(150), IsMandatory: true, TermIDs: allTerms},
			},
		},
		{
			name: "larger amount seen first is kept",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("b", "Tuition", false, "300")}, nil),
				term("Term 2", []Bucket{bucket("b", "Tuition", false, "200")}, nil),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b", Amount: NewAmount(300), IsMandatory: true, TermIDs: allTerms},
			},
		},
		{
			name: "mandatory wins over optional",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("b", "Bus", true, "100")}, nil),
				term("Term 2", []Bucket{bucket("b", "Bus", false, "100")}, nil),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b", Amount: NewAmount(100), IsMandatory: true, TermIDs: allTerms},
			},
		},
		{
			name: "optional everywhere stays optional",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("b", "Bus", true, "100")}, nil),
				term("Term 2", []Bucket{bucket("b", "Bus", true, "50")}, nil),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b", Amount: NewAmount(100), IsMandatory: false, TermIDs: allTerms},
			},
		},
		{
			name: "non positive existing amounts are ignored",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("b1", "Tuition", false, "100")}, map[string]string{"b2": "0", "b3": "-10", "b4": "junk"}),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b1", Amount: NewAmount(100), IsMandatory: true, TermIDs: allTerms},
			},
		},
		{
			name: "placeholders are skipped and reported",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("", "Lab", false, "99999"), bucket("b1", "Tuition", false, "100")}, nil),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "b1", Amount: NewAmount(100), IsMandatory: true, TermIDs: allTerms},
			},
			wantSkipped: 1,
		},
		{
			name: "first sight order, existing keys sorted",
			terms: []TermStructure{
				term("Term 1", []Bucket{bucket("z", "Z", false, "1")}, map[string]string{"c": "3", "a": "1"}),
				term("Term 2", []Bucket{bucket("b", "B", true, "2")}, nil),
			},
			termIDs: allTerms,
			wantItems: []AggregatedFeeItem{
				{FeeBucketID: "z", Amount: NewAmount(1), IsMandatory: true, TermIDs: allTerms},
				{FeeBucketID: "a", Amount: NewAmount(1), IsMandatory: true, TermIDs: allTerms},
				{FeeBucketID: "c", Amount: NewAmount(3), IsMandatory: true, TermIDs: allTerms},
				{FeeBucketID: "b", Amount: NewAmount(2), IsMandatory: false, TermIDs: allTerms},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Aggregate(tt.terms, tt.termIDs)
			assert.Len(t, res.Skipped, tt.wantSkipped)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, res.Items, len(tt.wantItems))
			for i, want := range tt.wantItems {
				got := res.Items[i]
				assert.Equal(t, want.FeeBucketID, got.FeeBucketID)
				assertAmount(t, want.Amount.String(), got.Amount, want.FeeBucketID)
				assert.Equal(t, want.IsMandatory, got.IsMandatory, want.FeeBucketID)
				assert.Equal(t, want.TermIDs, got.TermIDs)
			}
		})
	}
}

func TestAggregate_isPure(t *testing.T) {
	terms := []TermStructure{
		term("Term 1", []Bucket{bucket("b1", "Tuition", false, "100"), bucket("b2", "Bus", true, "40")}, map[string]string{"b3": "10", "b1": "120"}),
		term("Term 2", []Bucket{bucket("b2", "Bus", false, "30"), bucket("", "Lab", false, "7")}, map[string]string{"b4": "5"}),
	}
	termIDs := []string{"t1", "t2"}

	first, err := Aggregate(terms, termIDs)
	require.NoError(t, err)
	second, err := Aggregate(terms, termIDs)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// the output never aliases the input term ids
	first.Items[0].TermIDs[0] = "mutated"
	assert.Equal(t, "t1", termIDs[0])
	assert.Equal(t, "t1", second.Items[0].TermIDs[0])
}

func TestAggregate_idLessBucketsNeverAggregated(t *testing.T) {
	terms := []TermStructure{
		term("Term 1", []Bucket{bucket("", "Lab", false, "1000000"), bucket("b1", "Tuition", false, "1")}, nil),
		term("Term 2", []Bucket{bucket("", "Tuition", false, "5")}, nil),
	}
	res, err := Aggregate(terms, []string{"t1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "b1", res.Items[0].FeeBucketID)
	assertAmount(t, "1", res.Items[0].Amount)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, SkippedBucket{TermIndex: 0, BucketIndex: 0, Term: "Term 1", Name: "Lab", Total: res.Skipped[0].Total}, res.Skipped[0])
	assertAmount(t, "1000000", res.Skipped[0].Total)
	assert.Equal(t, 1, res.Skipped[1].TermIndex)
}
