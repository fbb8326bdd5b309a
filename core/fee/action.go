package fee

import "github.com/pkg/errors"

type ActionType string

// Draft actions
const (
	ActionAddTerm                    ActionType = "addTerm"
	ActionRemoveTerm                 ActionType = "removeTerm"
	ActionUpdateTermField            ActionType = "updateTermField"
	ActionAddBucket                  ActionType = "addBucket"
	ActionRemoveBucket               ActionType = "removeBucket"
	ActionUpdateBucket               ActionType = "updateBucket"
	ActionAddComponent               ActionType = "addComponent"
	ActionRemoveComponent            ActionType = "removeComponent"
	ActionUpdateComponent            ActionType = "updateComponent"
	ActionAddExistingBucket          ActionType = "addExistingBucket"
	ActionSetExistingBucketAmount    ActionType = "setExistingBucketAmount"
	ActionRemoveExistingBucketAmount ActionType = "removeExistingBucketAmount"
	ActionAddCatalogBucket           ActionType = "addCatalogBucket"
	ActionSetName                    ActionType = "setName"
	ActionSetAcademicYear            ActionType = "setAcademicYear"
	ActionSetBoardingType            ActionType = "setBoardingType"
	ActionSetGradeLevels             ActionType = "setGradeLevels"
)

var ErrUnknownAction = errors.New("unknown draft action")

// Action is one serializable edit of a Draft.
type Action struct {
	Type           ActionType `json:"type" validate:"required"`
	TermIndex      int        `json:"termIndex"`
	BucketIndex    int        `json:"bucketIndex"`
	ComponentIndex int        `json:"componentIndex"`
	BucketID       string     `json:"bucketId"`
	Field          string     `json:"field"`
	Value          string     `json:"value"`
	Values         []string   `json:"values"`
	Bucket         *FeeBucket `json:"bucket,omitempty"`
}

// Apply reduces draft with action. On error the returned draft is the unchanged input.
func Apply(draft Draft, action Action) (Draft, error) {
	switch action.Type {
	case ActionAddTerm:
		return draft.AddTerm(), nil
	case ActionRemoveTerm:
		return draft.RemoveTerm(action.TermIndex)
	case ActionUpdateTermField:
		return draft.UpdateTermField(action.TermIndex, action.Field, action.Value)
	case ActionAddBucket:
		return draft.AddBucket(action.TermIndex)
	case ActionRemoveBucket:
		return draft.RemoveBucket(action.TermIndex, action.BucketIndex)
	case ActionUpdateBucket:
		return draft.UpdateBucket(action.TermIndex, action.BucketIndex, action.Field, action.Value)
	case ActionAddComponent:
		return draft.AddComponent(action.TermIndex, action.BucketIndex)
	case ActionRemoveComponent:
		return draft.RemoveComponent(action.TermIndex, action.BucketIndex, action.ComponentIndex)
	case ActionUpdateComponent:
		return draft.UpdateComponent(action.TermIndex, action.BucketIndex, action.ComponentIndex, action.Field, action.Value)
	case ActionAddExistingBucket:
		return draft.AddExistingBucket(action.TermIndex, action.BucketID)
	case ActionSetExistingBucketAmount:
		return draft.SetExistingBucketAmount(action.TermIndex, action.BucketID, action.Value)
	case ActionRemoveExistingBucketAmount:
		return draft.RemoveExistingBucketAmount(action.TermIndex, action.BucketID)
	case ActionAddCatalogBucket:
		if action.Bucket == nil || action.Bucket.ID == "" {
			return draft, errors.Wrap(ErrInvalidValue, "bucket")
		}
		return draft.WithCatalogBucket(*action.Bucket), nil
	case ActionSetName:
		cp := draft.clone()
		cp.Form.Name = action.Value
		return cp, nil
	case ActionSetAcademicYear:
		cp := draft.clone()
		cp.Form.AcademicYear = action.Value
		for i := range cp.Form.TermStructures {
			cp.Form.TermStructures[i].AcademicYear = action.Value
		}
		return cp, nil
	case ActionSetBoardingType:
		if !IsBoardingType(action.Value) {
			return draft, errors.Wrapf(ErrInvalidValue, "boardingType %q", action.Value)
		}
		cp := draft.clone()
		cp.Form.BoardingType = action.Value
		return cp, nil
	case ActionSetGradeLevels:
		cp := draft.clone()
		cp.Form.GradeLevelIDs = append([]string{}, action.Values...)
		return cp, nil
	default:
		return draft, errors.Wrapf(ErrUnknownAction, "%q", action.Type)
	}
}

// IsBoardingType tells whether s is one of BoardingTypes.
func IsBoardingType(s string) bool {
	for _, bt := range BoardingTypes {
		if s == bt {
			return true
		}
	}
	return false
}
