package core

import "github.com/valter-silva-au/delegation-dashboard/pkg/models"

// SelectionOverlay pins the view to at most one history record. Selecting
// writes the record's projection into a result slot owned by the caller;
// history itself is never touched.
type SelectionOverlay struct {
	selectedID     string
	restoreOnClear bool

	// saved is the slot content from before the first selection; only used
	// when restoreOnClear is set.
	saved    *models.AgentResult
	hasSaved bool
}

// NewSelectionOverlay creates an overlay. When restoreOnClear is false,
// clearing a selection leaves the selected record's data in the slot.
func NewSelectionOverlay(restoreOnClear bool) *SelectionOverlay {
	return &SelectionOverlay{restoreOnClear: restoreOnClear}
}

// Select marks record as selected and returns the result to place in the
// slot. current is the slot content before this call.
func (o *SelectionOverlay) Select(record models.DelegationRecord, current *models.AgentResult) *models.AgentResult {
	if !o.hasSaved {
		o.saved = cloneResultPtr(current)
		o.hasSaved = true
	}
	o.selectedID = record.ID
	projected := record.Result()
	return &projected
}

// Clear drops the selected id. If restoreOnClear is set it also returns the
// slot content saved before the first selection, with restore == true.
func (o *SelectionOverlay) Clear() (previous *models.AgentResult, restore bool) {
	if o.selectedID == "" {
		return nil, false
	}
	previous, restore = o.saved, o.restoreOnClear && o.hasSaved
	o.Reset()
	return previous, restore
}

// Reset forgets the selection and any saved slot content without producing
// a restore. It is used when a new run or a sample toggle supersedes it.
func (o *SelectionOverlay) Reset() {
	o.selectedID = ""
	o.saved = nil
	o.hasSaved = false
}

// SelectedID returns the selected record id, if any.
func (o *SelectionOverlay) SelectedID() (string, bool) {
	return o.selectedID, o.selectedID != ""
}

func cloneResultPtr(r *models.AgentResult) *models.AgentResult {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}
