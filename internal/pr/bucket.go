package pr

import "fmt"

// Bucket is the workflow category a pull request is sorted into.
type Bucket int

const (
	NeedsYourReview Bucket = iota
	WaitingForReviewers
	ReturnedToYou
	Approved
	Drafts
	RecentlyMerged
	WaitingForAuthor
)

var displayOrder = []Bucket{
	NeedsYourReview,
	WaitingForReviewers,
	ReturnedToYou,
	Approved,
	Drafts,
	RecentlyMerged,
	WaitingForAuthor,
}

// DisplayOrder returns the canonical bucket order. The slice is a copy.
func DisplayOrder() []Bucket {
	return append([]Bucket(nil), displayOrder...)
}

// ID is the stable identifier used in config and persisted state.
func (b Bucket) ID() string {
	switch b {
	case NeedsYourReview:
		return "needs_your_review"
	case WaitingForReviewers:
		return "waiting_for_reviewers"
	case ReturnedToYou:
		return "returned_to_you"
	case Approved:
		return "approved"
	case Drafts:
		return "drafts"
	case RecentlyMerged:
		return "recently_merged"
	case WaitingForAuthor:
		return "waiting_for_author"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

func (b Bucket) Label() string {
	switch b {
	case NeedsYourReview:
		return "Needs Your Review"
	case WaitingForReviewers:
		return "Waiting for Reviewers"
	case ReturnedToYou:
		return "Returned to You"
	case Approved:
		return "Approved"
	case Drafts:
		return "Drafts"
	case RecentlyMerged:
		return "Recently Merged"
	case WaitingForAuthor:
		return "Waiting for Author"
	default:
		return "Unknown"
	}
}

func (b Bucket) String() string {
	return b.ID()
}

// ParseBucket maps a stable id back to its bucket.
func ParseBucket(id string) (Bucket, bool) {
	for _, b := range displayOrder {
		if b.ID() == id {
			return b, true
		}
	}
	return 0, false
}

func (b Bucket) MarshalText() ([]byte, error) {
	if _, ok := ParseBucket(b.ID()); !ok {
		return nil, fmt.Errorf("unknown bucket %d", int(b))
	}
	return []byte(b.ID()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, ok := ParseBucket(string(text))
	if !ok {
		return fmt.Errorf("unknown bucket %q", string(text))
	}
	*b = parsed
	return nil
}

// OrderBuckets resolves a custom order of bucket ids. Unknown ids and duplicates
// are dropped; buckets missing from the custom order follow in canonical order.
func OrderBuckets(ids []string) []Bucket {
	if len(ids) == 0 {
		return DisplayOrder()
	}

	seen := make(map[Bucket]bool, len(displayOrder))
	ordered := make([]Bucket, 0, len(displayOrder))
	for _, id := range ids {
		b, ok := ParseBucket(id)
		if !ok || seen[b] {
			continue
		}
		seen[b] = true
		ordered = append(ordered, b)
	}
	for _, b := range displayOrder {
		if !seen[b] {
			ordered = append(ordered, b)
		}
	}
	return ordered
}
