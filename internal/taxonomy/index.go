package taxonomy

import (
	"labelclean/internal/textnorm"
)

// Ref points into a Set entry. Form is non-nil only when the matched variant
// was registered through a nutrient sub-form.
type Ref struct {
	Entry *Entry
	Form  *Form
}

// Collision records a variant that two different canonical names tried to
// claim. The first registration is kept; the rejected target is logged by the
// caller, never applied.
type Collision struct {
	Variant  string
	Kept     string
	Rejected string
}

// Index is a read-only exact-match index over one taxonomy. Keys are every
// generated variation of every canonical name and alias, preprocessed.
type Index struct {
	kind       Kind
	lookup     map[string]Ref
	variants   []string
	collisions []Collision
}

// NewIndex builds the variation index for one taxonomy. Entries register in
// slice order and earlier registrations win variant collisions, so the index
// is deterministic for a given Set.
func NewIndex(kind Kind, entries []Entry) *Index {
	idx := &Index{
		kind:   kind,
		lookup: make(map[string]Ref),
	}
	for i := range entries {
		entry := &entries[i]
		idx.register(entry.CanonicalName, Ref{Entry: entry})
		for _, alias := range entry.Aliases {
			idx.register(alias, Ref{Entry: entry})
		}
		for f := range entry.Forms {
			form := &entry.Forms[f]
			idx.register(form.Name, Ref{Entry: entry, Form: form})
			for _, alias := range form.Aliases {
				idx.register(alias, Ref{Entry: entry, Form: form})
			}
		}
	}
	return idx
}

func (idx *Index) register(name string, ref Ref) {
	processed := textnorm.Preprocess(name)
	if processed == "" {
		return
	}
	for _, variant := range textnorm.GenerateVariations(processed) {
		if existing, ok := idx.lookup[variant]; ok {
			if existing.Entry.CanonicalName != ref.Entry.CanonicalName {
				idx.collisions = append(idx.collisions, Collision{
					Variant:  variant,
					Kept:     existing.Entry.CanonicalName,
					Rejected: ref.Entry.CanonicalName,
				})
			}
			continue
		}
		idx.lookup[variant] = ref
		idx.variants = append(idx.variants, variant)
	}
}

// Kind returns the taxonomy this index covers.
func (idx *Index) Kind() Kind { return idx.kind }

// Lookup resolves an already-preprocessed name to its taxonomy entry.
func (idx *Index) Lookup(processed string) (Ref, bool) {
	ref, ok := idx.lookup[processed]
	return ref, ok
}

// Variants returns every registered variant in registration order. The slice
// is shared; callers must not modify it. This is the fuzzy-match target list.
func (idx *Index) Variants() []string { return idx.variants }

// Collisions returns the variant collisions recorded during the build.
func (idx *Index) Collisions() []Collision { return idx.collisions }

// Len returns the number of registered variants.
func (idx *Index) Len() int { return len(idx.variants) }

// IndexSet holds one Index per taxonomy plus a combined cross-taxonomy map
// for short-circuit lookups. Built once per worker, read-only afterwards.
type IndexSet struct {
	indexes  map[Kind]*Index
	combined map[string]Ref
}

// BuildIndexes constructs every per-taxonomy index and the combined lookup.
// The combined map registers taxonomies in priority order, so when a variant
// exists in several taxonomies the highest-priority one wins.
func BuildIndexes(set *Set) *IndexSet {
	is := &IndexSet{
		indexes:  make(map[Kind]*Index, len(Kinds)),
		combined: make(map[string]Ref),
	}
	for _, kind := range Kinds {
		idx := NewIndex(kind, set.ByKind(kind))
		is.indexes[kind] = idx
		for _, variant := range idx.variants {
			if _, ok := is.combined[variant]; ok {
				continue
			}
			is.combined[variant] = idx.lookup[variant]
		}
	}
	return is
}

// Index returns the per-taxonomy index for kind.
func (is *IndexSet) Index(kind Kind) *Index { return is.indexes[kind] }

// LookupAny resolves a preprocessed name against the combined index.
func (is *IndexSet) LookupAny(processed string) (Ref, bool) {
	ref, ok := is.combined[processed]
	return ref, ok
}

// Collisions returns all recorded collisions across every taxonomy, keyed by
// taxonomy kind.
func (is *IndexSet) Collisions() map[Kind][]Collision {
	out := make(map[Kind][]Collision)
	for kind, idx := range is.indexes {
		if len(idx.collisions) > 0 {
			out[kind] = idx.collisions
		}
	}
	return out
}
