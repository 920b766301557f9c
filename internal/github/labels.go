package github

import (
	"context"
	"strings"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
)

// labelCacheLimit bounds the process-lifetime label-existence cache. On
// overflow the cache is cleared wholesale rather than evicted piecemeal.
const labelCacheLimit = 1000

// labelColors is the palette used when provisioning missing labels, keyed by
// lowercase label name. Anything else gets gray.
var labelColors = map[string]string{
	"spec":       "1d76db",
	"plan":       "5319e7",
	"research":   "006b75",
	"task":       "fbca04",
	"quickstart": "0e8a16",
	"datamodel":  "d93f0b",
	"contracts":  "b60205",
	"subtask":    "6a5acd",
	"common":     "cccccc",
}

const defaultLabelColor = "cccccc"

// labelColor picks the palette color for a label name.
func labelColor(name string) string {
	if c, ok := labelColors[strings.ToLower(name)]; ok {
		return c
	}
	return defaultLabelColor
}

// effectiveLabels resolves the labels applied to an issue of the given file
// kind: the configured common labels followed by the kind's own, first
// occurrence winning on duplicates. A kind with no mapping at all falls back
// to the kind name itself.
func (a *Adapter) effectiveLabels(kind spec.Kind) []string {
	kindLabels, ok := a.labels[string(kind)]
	if !ok {
		kindLabels = []string{string(kind)}
	}
	return dedupLabels(a.labels["common"], kindLabels)
}

// labelUnion collects the effective labels for every pushable file of a
// document, deduplicated, so provisioning happens in one pass.
func (a *Adapter) labelUnion(doc *spec.Document) []string {
	lists := [][]string{a.effectiveLabels(spec.KindSpec)}
	for _, f := range doc.SubtaskFiles() {
		kind, ok := f.Kind()
		if !ok {
			continue
		}
		lists = append(lists, a.effectiveLabels(kind))
	}
	return dedupLabels(lists...)
}

// ensureLabels makes sure every named label exists in the repository,
// creating missing ones with palette colors. Failures downgrade to warnings:
// a push must not die because a label could not be provisioned. Names that
// checked out are cached for the rest of the process.
func (a *Adapter) ensureLabels(ctx context.Context, names []string) {
	missing := a.uncached(names)
	if len(missing) == 0 {
		return
	}

	existing := make(map[string]struct{})
	labels, err := a.client.ListLabels(ctx)
	if err != nil {
		logger.Warn("listing labels failed; creating blindly", "err", err)
	} else {
		for _, l := range labels {
			existing[strings.ToLower(l.Name)] = struct{}{}
		}
	}

	for _, name := range missing {
		if _, ok := existing[strings.ToLower(name)]; ok {
			a.cacheLabels(name)
			continue
		}
		if err := a.client.CreateLabel(ctx, name, labelColor(name), ""); err != nil {
			logger.Warn("creating label failed", "label", name, "err", err)
			continue
		}
		logger.Debug("created label", "label", name, "color", labelColor(name))
		a.cacheLabels(name)
	}
}

// uncached returns the subset of names not yet known to exist, deduplicated,
// in input order.
func (a *Adapter) uncached(names []string) []string {
	a.labelMu.Lock()
	defer a.labelMu.Unlock()

	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, known := a.knownLabels[key]; !known {
			out = append(out, name)
		}
	}
	return out
}

// cacheLabels records names as existing, clearing the whole cache first when
// an insert would exceed the bound.
func (a *Adapter) cacheLabels(names ...string) {
	a.labelMu.Lock()
	defer a.labelMu.Unlock()

	for _, name := range names {
		if len(a.knownLabels) >= labelCacheLimit {
			a.knownLabels = make(map[string]struct{})
		}
		a.knownLabels[strings.ToLower(name)] = struct{}{}
	}
}

// dedupLabels concatenates label lists, dropping empties and repeats while
// preserving first-occurrence order.
func dedupLabels(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, label := range list {
			if label == "" {
				continue
			}
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			out = append(out, label)
		}
	}
	return out
}

// missingLabels returns the labels in want that the issue does not already
// carry, compared case-insensitively.
func missingLabels(want, have []string) []string {
	has := make(map[string]struct{}, len(have))
	for _, label := range have {
		has[strings.ToLower(label)] = struct{}{}
	}
	var out []string
	for _, label := range want {
		if _, ok := has[strings.ToLower(label)]; !ok {
			out = append(out, label)
		}
	}
	return out
}
