package audit

import (
	"sort"

	"f0oster/adsiteaudit/activedirectory"
)

// LocationIndex is the set of distinct subnet locations seen in one run.
type LocationIndex struct {
	locations map[string]struct{}
}

// NewLocationIndex collects the locations of subnets. Subnets without a location are
// left out unless includeEmpty is set, in which case "" becomes a known location and
// users or printers with an empty attribute are no longer reported.
func NewLocationIndex(subnets []activedirectory.Subnet, includeEmpty bool) *LocationIndex {
	index := &LocationIndex{locations: make(map[string]struct{}, len(subnets))}
	for _, subnet := range subnets {
		if subnet.Location == "" && !includeEmpty {
			continue
		}
		index.locations[subnet.Location] = struct{}{}
	}
	return index
}

func (i *LocationIndex) Contains(location string) bool {
	_, ok := i.locations[location]
	return ok
}

func (i *LocationIndex) Len() int {
	return len(i.locations)
}

// Locations returns the known locations in ascending order.
func (i *LocationIndex) Locations() []string {
	locations := make([]string, 0, len(i.locations))
	for location := range i.locations {
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return locations
}
