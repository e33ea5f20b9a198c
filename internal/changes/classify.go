package changes

import "sort"

// Classified is the slice of a snapshot matching one entry type.
type Classified struct {
	EntryType string
	Created   []Effect
	Modified  []Effect
	Deleted   []Effect
}

// Classify filters each of the snapshot's three lists down to the effects
// of one entry type. It never mutates the snapshot; an entry type present
// in no list yields three empty lists.
func Classify(s Snapshot, entryType string) Classified {
	return Classified{
		EntryType: entryType,
		Created:   filterByType(s.Created, entryType),
		Modified:  filterByType(s.Modified, entryType),
		Deleted:   filterByType(s.Deleted, entryType),
	}
}

// Total is the number of effects of all three kinds.
func (c Classified) Total() int {
	return len(c.Created) + len(c.Modified) + len(c.Deleted)
}

// EntryTypes returns the sorted set of entry-type names present in any of
// the snapshot's lists. Classifying a snapshot by each name returned here
// partitions every list completely.
func EntryTypes(s Snapshot) []string {
	seen := make(map[string]struct{})
	for _, list := range [3][]Effect{s.Created, s.Modified, s.Deleted} {
		for _, eff := range list {
			seen[eff.EntryType] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func filterByType(effects []Effect, entryType string) []Effect {
	var out []Effect
	for _, eff := range effects {
		if eff.EntryType == entryType {
			out = append(out, eff)
		}
	}
	return out
}
