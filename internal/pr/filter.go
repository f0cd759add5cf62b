package pr

import (
	"sort"
	"strings"
)

// Filter drops items whose repository is on the deny-list. Order is preserved and
// the input slice is never modified.
func Filter(items []Item, blocked map[string]bool) []Item {
	if len(blocked) == 0 {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if blocked[it.Repo] {
			continue
		}
		out = append(out, it)
	}
	return out
}

type RepoCount struct {
	FullName string
	Name     string
	Count    int
}

type OwnerRepos struct {
	Owner string
	Repos []RepoCount
}

// RepoTree groups items by owner and repository, both sorted by name.
// Repositories not in "owner/name" form are skipped.
func RepoTree(items []Item) []OwnerRepos {
	counts := make(map[string]map[string]int)
	for _, it := range items {
		owner, name, ok := strings.Cut(it.Repo, "/")
		if !ok || owner == "" || name == "" {
			continue
		}
		if counts[owner] == nil {
			counts[owner] = make(map[string]int)
		}
		counts[owner][it.Repo]++
	}

	tree := make([]OwnerRepos, 0, len(counts))
	for owner, repos := range counts {
		entry := OwnerRepos{Owner: owner}
		for full, n := range repos {
			entry.Repos = append(entry.Repos, RepoCount{FullName: full, Name: ShortRepo(full), Count: n})
		}
		sort.Slice(entry.Repos, func(i, j int) bool {
			return entry.Repos[i].FullName < entry.Repos[j].FullName
		})
		tree = append(tree, entry)
	}
	sort.Slice(tree, func(i, j int) bool { return tree[i].Owner < tree[j].Owner })
	return tree
}
