package refund

import "github.com/google/uuid"

// Draft is the refund being prepared by the operator.
type Draft struct {
	Selection     Selection
	ReturnToStock bool
}

// State is one of Idle, ModeSelected, Confirming or Submitting.
type State interface {
	isState()
}

// Idle is the initial state: no refund option chosen.
type Idle struct{}

// ModeSelected means a refund mode is chosen and items or the fee may be toggled.
type ModeSelected struct{ Draft }

// Confirming means the operator is reviewing the refund before submitting it.
type Confirming struct{ Draft }

// Submitting means the refund request is in flight.
type Submitting struct{ Draft }

func (Idle) isState()         {}
func (ModeSelected) isState() {}
func (Confirming) isState()   {}
func (Submitting) isState()   {}

// Action is an operator event fed to Reduce.
type Action interface {
	isAction()
}

type (
	// SetMode chooses a refund mode and discards any previous item or fee selection.
	SetMode struct{ Mode Mode }
	// ToggleItem adds or removes an item from the selection.
	ToggleItem struct{ ItemID uuid.UUID }
	// ToggleDeliveryFee flips whether the delivery fee is refunded.
	ToggleDeliveryFee struct{}
	// ToggleReturnToStock flips whether refunded items go back to stock.
	ToggleReturnToStock struct{}
	// ShowConfirm opens the confirmation step.
	ShowConfirm struct{}
	// HideConfirm closes the confirmation step and forgets the return-to-stock choice.
	HideConfirm struct{}
	// Reset returns to Idle.
	Reset struct{}
)

func (SetMode) isAction()             {}
func (ToggleItem) isAction()          {}
func (ToggleDeliveryFee) isAction()   {}
func (ToggleReturnToStock) isAction() {}
func (ShowConfirm) isAction()         {}
func (HideConfirm) isAction()         {}
func (Reset) isAction()               {}

// Reduce returns the state that follows s after a. Actions that do not apply
// to the current state leave it unchanged. s is never modified.
func Reduce(s State, a Action) State {
	if _, ok := a.(Reset); ok {
		return Idle{}
	}

	switch st := s.(type) {
	case Idle:
		if set, ok := a.(SetMode); ok && set.Mode != ModeNone {
			return ModeSelected{Draft{Selection: Selection{Mode: set.Mode}}}
		}
	case ModeSelected:
		switch act := a.(type) {
		case SetMode:
			if act.Mode == ModeNone {
				return Idle{}
			}
			return ModeSelected{Draft{Selection: Selection{Mode: act.Mode}, ReturnToStock: st.ReturnToStock}}
		case ToggleItem:
			d := st.clone()
			d.Selection.ItemIDs = toggle(d.Selection.ItemIDs, act.ItemID)
			return ModeSelected{d}
		case ToggleDeliveryFee:
			d := st.clone()
			d.Selection.IncludeDeliveryFee = !d.Selection.IncludeDeliveryFee
			return ModeSelected{d}
		case ToggleReturnToStock:
			d := st.clone()
			d.ReturnToStock = !d.ReturnToStock
			return ModeSelected{d}
		case ShowConfirm:
			return Confirming{st.clone()}
		}
	case Confirming:
		switch a.(type) {
		case ToggleReturnToStock:
			d := st.clone()
			d.ReturnToStock = !d.ReturnToStock
			return Confirming{d}
		case HideConfirm:
			d := st.clone()
			d.ReturnToStock = false
			return ModeSelected{d}
		}
	}
	return s
}

// DraftOf returns the draft carried by s, if any.
func DraftOf(s State) (Draft, bool) {
	switch st := s.(type) {
	case ModeSelected:
		return st.Draft, true
	case Confirming:
		return st.Draft, true
	case Submitting:
		return st.Draft, true
	}
	return Draft{}, false
}

func (d Draft) clone() Draft {
	ids := make([]uuid.UUID, len(d.Selection.ItemIDs))
	copy(ids, d.Selection.ItemIDs)
	d.Selection.ItemIDs = ids
	return d
}

func toggle(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}
