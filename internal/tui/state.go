package tui

import (
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
)

type Snapshot struct {
	Timestamp time.Time
	Viewer    string
	LastFetch *time.Time
	Error     string
	Hint      string
	Demo      bool
	Fetching  bool
	Badge     int
	Total     int
	Buckets   []BucketState
	Orgs      []OrgState
}

type BucketState struct {
	Bucket pr.Bucket
	Items  []ItemState
}

type ItemState struct {
	Number     int
	Title      string
	URL        string
	Repo       string // short name, without owner
	Author     string
	AvatarPath string // empty until the avatar is cached
	CIStatus   string
	Created    time.Time // zero when unknown
	Activity   time.Time
}

type OrgState struct {
	Owner string
	Repos []RepoState
}

type RepoState struct {
	FullName string
	Name     string
	Count    int
	Blocked  bool
}
