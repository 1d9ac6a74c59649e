package ingest

import (
	"context"
	"sort"

	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/shared"
)

// lineStats summarizes one child-collection reconciliation
type lineStats struct {
	created int
	updated int
	skipped []string
}

// reconcileLines diffs the incoming descriptors against the entity's child
// collection by natural key:
//
//   - a descriptor with a matching line mutates it in place
//   - a descriptor with no match materializes a new line
//   - an unprotected line with no descriptor is removed
//   - a protected line with no descriptor survives, flagged for review
//
// Protection guards deletion only. A booked line the document still
// mentions takes the incoming data like any other.
//
// Duplicate descriptor keys are a business-rule violation; the later
// descriptor is recorded against the list and ignored. The entity's
// collection is replaced only through SetLines, so callers observe either
// the old collection or the fully reconciled one.
func reconcileLines[R document.Root, L, D any](
	ctx context.Context,
	m DocumentMapper[R, L, D],
	entity R,
	descs []D,
	refs *References,
	tracker *shared.ChangeTracker,
	violations *ViolationList,
) lineStats {
	var stats lineStats

	existing := m.Lines(entity)
	byKey := make(map[string]*L, len(existing))
	for i := range existing {
		byKey[m.LineKey(&existing[i])] = &existing[i]
	}

	result := make([]L, 0, len(descs))
	seen := make(map[string]bool, len(descs))

	for _, d := range descs {
		key := m.DescriptorKey(d)
		if key == "" {
			violations.Add("lines", "MISSING_LINE_KEY", "line item has no identity")
			continue
		}
		if seen[key] {
			violations.Add("lines", "DUPLICATE_LINE_KEY", "duplicate line item "+key)
			continue
		}
		seen[key] = true

		if line, ok := byKey[key]; ok {
			changed, err := m.MutateLine(ctx, line, d, refs)
			if err != nil {
				violations.AddError("lines["+key+"]", err)
				result = append(result, *line)
				continue
			}
			if tracker.MarkIf(changed) {
				stats.updated++
			}
			result = append(result, *line)
			continue
		}

		line, err := m.NewLine(entity, d)
		if err != nil {
			violations.AddError("lines["+key+"]", err)
			continue
		}
		if _, err := m.MutateLine(ctx, line, d, refs); err != nil {
			violations.AddError("lines["+key+"]", err)
			continue
		}
		tracker.Mark()
		stats.created++
		result = append(result, *line)
	}

	// Lines the document no longer mentions: protected ones survive and
	// are flagged for operator review, the rest are dropped.
	for i := range existing {
		key := m.LineKey(&existing[i])
		if seen[key] {
			continue
		}
		if m.Protected(&existing[i]) {
			tracker.MarkIf(m.MarkSkipped(&existing[i]))
			stats.skipped = append(stats.skipped, key)
			result = append(result, existing[i])
			continue
		}
		tracker.Mark()
	}

	m.SetLines(entity, result)
	return stats
}

// orderLines assigns display positions when the mapper declares an
// ordering. The sort is stable, so lines the comparator cannot distinguish
// keep the order reconciliation produced.
func orderLines[R document.Root, L, D any](
	m DocumentMapper[R, L, D],
	entity R,
	tracker *shared.ChangeTracker,
) {
	orderer, ok := any(m).(LineOrderer[L])
	if !ok {
		return
	}

	lines := m.Lines(entity)
	sort.SliceStable(lines, func(i, j int) bool {
		return orderer.Less(&lines[i], &lines[j])
	})
	for i := range lines {
		tracker.MarkIf(orderer.SetOrdinal(&lines[i], i+1))
	}
	m.SetLines(entity, lines)
}
