package skemajson

import (
	"strings"
)

// Presence is the bit flag collected by WithMeta APIs.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value or createIfAbsent instance was applied.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Has reports whether every bit of p is set for path.
func (pm PresenceMap) Has(path string, p Presence) bool { return pm[path]&p == p }

// Decoded carries the read value along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
}

func applyPresenceOptions(pm PresenceMap, popt PresenceOpt) PresenceMap {
	if pm == nil {
		return nil
	}
	if !popt.Collect {
		return nil
	}
	if len(popt.Include) == 0 && len(popt.Exclude) == 0 {
		return pm
	}

	shouldInclude := func(path string) bool {
		if len(popt.Include) > 0 {
			ok := false
			for _, p := range popt.Include {
				if strings.HasPrefix(path, p) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
		for _, p := range popt.Exclude {
			if strings.HasPrefix(path, p) {
				return false
			}
		}
		return true
	}

	filtered := make(PresenceMap, len(pm))
	for k, v := range pm {
		if shouldInclude(k) {
			filtered[k] = v
		}
	}
	return filtered
}

// normalizeWithMetaOpt turns presence collection on; WithMeta calls always
// collect, filtered by Include/Exclude.
func normalizeWithMetaOpt(opts []ReadOpt) ReadOpt {
	opt := lastReadOpt(opts)
	opt.Presence.Collect = true
	return opt
}
