package pr

import "sort"

// Transition is a change detected between two snapshots: NewItem, MovedItem or RemovedItem.
type Transition interface {
	Subject() Item
	transition()
}

type NewItem struct {
	Item Item
}

type MovedItem struct {
	Item Item
	From Bucket
}

type RemovedItem struct {
	Item Item
}

func (t NewItem) Subject() Item     { return t.Item }
func (t MovedItem) Subject() Item   { return t.Item }
func (t RemovedItem) Subject() Item { return t.Item }

func (NewItem) transition()     {}
func (MovedItem) transition()   {}
func (RemovedItem) transition() {}

// Diff compares the previous snapshot with the current items. Transitions for
// current items come first, in list order; removals follow, sorted by id.
func Diff(prev map[string]Item, current []Item) []Transition {
	var out []Transition
	present := make(map[string]bool, len(current))

	for _, it := range current {
		present[it.ID] = true
		old, ok := prev[it.ID]
		switch {
		case !ok:
			out = append(out, NewItem{Item: it})
		case old.Bucket != it.Bucket:
			out = append(out, MovedItem{Item: it, From: old.Bucket})
		}
	}

	var removed []string
	for id := range prev {
		if !present[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		out = append(out, RemovedItem{Item: prev[id]})
	}

	return out
}

// NotificationText returns the alert for a transition. ok is false when the
// transition should not notify.
func NotificationText(t Transition) (title, body string, ok bool) {
	switch t := t.(type) {
	case NewItem:
		title = newTitle(t.Item.Bucket)
		if title == "" {
			return "", "", false
		}
		return title, t.Item.Summary(), true
	case MovedItem:
		title = newTitle(t.Item.Bucket)
		if t.Item.Bucket == RecentlyMerged {
			title = "PR Merged"
		}
		if title == "" {
			return "", "", false
		}
		return title, t.Item.Summary(), true
	default:
		return "", "", false
	}
}

func newTitle(b Bucket) string {
	switch b {
	case NeedsYourReview:
		return "Review Requested"
	case ReturnedToYou:
		return "Changes Requested"
	case Approved:
		return "PR Approved"
	default:
		return ""
	}
}
