package fee

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNoValidBuckets = errors.New("No valid fee buckets found")
	ErrNoValidTerms   = errors.New("No valid terms found")
)

type (
	// SkippedBucket is a placeholder bucket (no id) left out of an aggregation.
	SkippedBucket struct {
		TermIndex   int    `json:"termIndex"`
		BucketIndex int    `json:"bucketIndex"`
		Term        string `json:"term"`
		Name        string `json:"name"`
		Total       Amount `json:"total"`
	}

	AggregationResult struct {
		Items   []AggregatedFeeItem `json:"items"`
		Skipped []SkippedBucket     `json:"skipped,omitempty"`
	}
)

// Aggregate folds the term structures into one item per bucket id.
//
// Every item applies to all of allTermIDs. When a bucket is seen more than once
// (in another term, or through ExistingBucketAmounts) the larger amount wins and
// the item is mandatory if any sighting is. Items come out in first-sight order.
func Aggregate(termStructures []TermStructure, allTermIDs []string) (AggregationResult, error) {
	if len(allTermIDs) == 0 {
		return AggregationResult{}, ErrNoValidTerms
	}

	var (
		res   AggregationResult
		index = make(map[string]int)
	)
	see := func(bucketID string, amount Amount, mandatory bool) {
		if i, ok := index[bucketID]; ok {
			item := &res.Items[i]
			item.Amount = Max(item.Amount, amount)
			item.IsMandatory = item.IsMandatory || mandatory
			return
		}
		index[bucketID] = len(res.Items)
		res.Items = append(res.Items, AggregatedFeeItem{
			FeeBucketID: bucketID,
			Amount:      amount,
			IsMandatory: mandatory,
			TermIDs:     append([]string(nil), allTermIDs...),
		})
	}

	for ti, term := range termStructures {
		for bi, bucket := range term.Buckets {
			if bucket.ID == "" {
				res.Skipped = append(res.Skipped, SkippedBucket{
					TermIndex:   ti,
					BucketIndex: bi,
					Term:        term.Term,
					Name:        bucket.Name,
					Total:       BucketTotal(term, bi),
				})
				continue
			}
			see(bucket.ID, BucketTotal(term, bi), !bucket.IsOptional)
		}

		for _, id := range sortedKeys(term.ExistingBucketAmounts) {
			amount := term.ExistingBucketAmounts[id]
			if !amount.IsPositive() {
				continue
			}
			see(id, amount, true)
		}
	}

	if len(res.Items) == 0 {
		return res, ErrNoValidBuckets
	}
	return res, nil
}

func sortedKeys(m map[string]Amount) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
