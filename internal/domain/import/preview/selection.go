package preview

// Selection is the import decision for one preview row.
type Selection int

const (
	// SelectionMerge imports the row by merging it into its matched
	// existing transaction.
	SelectionMerge Selection = iota
	// SelectionSelected imports the row as a new transaction.
	SelectionSelected
	// SelectionDeselected leaves the row out of the import.
	SelectionDeselected
)

func (s Selection) String() string {
	switch s {
	case SelectionMerge:
		return "merge"
	case SelectionSelected:
		return "selected"
	default:
		return "deselected"
	}
}

func (s Selection) Selected() bool { return s != SelectionDeselected }

func (s Selection) Merge() bool { return s == SelectionMerge }

// initialSelection is the default for a freshly previewed row: ignored
// matches start deselected, other matches merge, everything else is
// selected.
func initialSelection(existing, ignored bool) Selection {
	switch {
	case ignored:
		return SelectionDeselected
	case existing:
		return SelectionMerge
	default:
		return SelectionSelected
	}
}

// Next is the toggle transition. Rows with an existing match cycle
// merge -> selected -> deselected -> merge; other rows flip between
// selected and deselected.
func (s Selection) Next(existing bool) Selection {
	if !existing {
		if s.Selected() {
			return SelectionDeselected
		}
		return SelectionSelected
	}

	switch s {
	case SelectionMerge:
		return SelectionSelected
	case SelectionSelected:
		return SelectionDeselected
	default:
		return SelectionMerge
	}
}
