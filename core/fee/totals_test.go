package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermTotals(t *testing.T) {
	ts := term("Term 1",
		[]Bucket{
			bucket("b1", "Tuition", false, "6000", "4000"),
			bucket("b2", "Bus", true, "1500", ""),
			bucket("", "Lab", false, "250.50"),
		},
		map[string]string{"b3": "500", "b4": "abc"},
	)

	assertAmount(t, "10000", BucketTotal(ts, 0))
	assertAmount(t, "1500", BucketTotal(ts, 1))
	assertAmount(t, "250.5", BucketTotal(ts, 2))
	assertAmount(t, "0", BucketTotal(ts, 3), "out of range")
	assertAmount(t, "0", BucketTotal(ts, -1), "negative index")

	assertAmount(t, "12250.5", TermTotal(ts))
	assertAmount(t, "10750.5", MandatoryTotal(ts))

	other := term("Term 2", []Bucket{bucket("b1", "Tuition", false, "100")}, nil)
	assertAmount(t, "12350.5", GrandTotal([]TermStructure{ts, other}))
	assertAmount(t, "0", GrandTotal(nil))
}

func TestMatrixTotals(t *testing.T) {
	m := AmountMatrix{}.
		Set("t1", "b1", NewAmount(500)).
		Set("t1", "b2", NewAmount(100)).
		Set("t2", "b1", NewAmount(700))
	buckets := []string{"b1", "b2"}

	assertAmount(t, "600", MatrixTermTotal(m, "t1", buckets))
	assertAmount(t, "700", MatrixTermTotal(m, "t2", buckets))
	assertAmount(t, "0", MatrixTermTotal(m, "t3", buckets))
	assertAmount(t, "500", MatrixMandatoryTotal(m, "t1", buckets, map[string]bool{"b2": true}))
	assertAmount(t, "1300", MatrixGrandTotal(m, []string{"t1", "t2"}, buckets))
	assertAmount(t, "500", MatrixGrandTotal(m, []string{"t1"}, []string{"b1"}))
}

func TestAmountMatrix_Set_doesNotMutate(t *testing.T) {
	m := AmountMatrix{}.Set("t1", "b1", NewAmount(1))
	m2 := m.Set("t1", "b1", NewAmount(2))
	assertAmount(t, "1", m.Get("t1", "b1"))
	assertAmount(t, "2", m2.Get("t1", "b1"))
}

func TestItemsTotals(t *testing.T) {
	items := []AggregatedFeeItem{
		{FeeBucketID: "b1", Amount: NewAmount(1000), TermIDs: []string{"t1", "t2", "t3"}},
		{FeeBucketID: "b2", Amount: NewAmount(200), TermIDs: []string{"t1"}},
	}
	assertAmount(t, "1200", ItemsTermTotal(items, "t1"))
	assertAmount(t, "1000", ItemsTermTotal(items, "t2"))
	assertAmount(t, "0", ItemsTermTotal(items, "t9"))
	assertAmount(t, "3200", ItemsGrandTotal(items))
}

func TestFeeStructure_AggregatedItems(t *testing.T) {
	fs := FeeStructure{
		ID:    "fs1",
		Terms: []Ref{{ID: "t1", Name: "Term 1"}, {ID: "t2", Name: "Term 2"}},
		Items: []FeeItem{{ID: "i1", FeeBucket: Ref{ID: "b1", Name: "Tuition"}, Amount: NewAmount(300), IsMandatory: true}},
	}
	items := fs.AggregatedItems()
	if assert.Len(t, items, 1) {
		assert.Equal(t, "b1", items[0].FeeBucketID)
		assert.Equal(t, []string{"t1", "t2"}, items[0].TermIDs)
		assert.True(t, items[0].IsMandatory)
	}
	assertAmount(t, "600", ItemsGrandTotal(items))
}
