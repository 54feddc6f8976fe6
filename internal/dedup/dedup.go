package dedup

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ArtistScout/internal/domain"
)

// Match is the outcome of a duplicate check. Hard matches share an
// identity token with a committed artist and must be rejected; a soft
// match is a name-similarity flag only.
type Match struct {
	Duplicate bool
	Soft      bool
	ArtistID  string
}

// Deduper detects repeated artists within and across sessions. Sharing
// any single non-empty identity token with a previously marked identity
// flags a duplicate, and grouping is transitive: tokens are merged via
// union-find, so A~B and B~C imply A~C.
type Deduper struct {
	mu        sync.Mutex
	parent    map[string]string
	owner     map[string]string // root token -> artist id
	names     map[string]string // normalized committed name -> artist id
	threshold float64
}

// New builds an empty deduper. threshold tunes name-only similarity
// flagging; values at or below zero disable soft matching.
func New(threshold float64) *Deduper {
	return &Deduper{
		parent:    make(map[string]string),
		owner:     make(map[string]string),
		names:     make(map[string]string),
		threshold: threshold,
	}
}

// Seed preloads fingerprints persisted by earlier sessions so re-discovered
// artists are caught before any enrichment budget is spent on them.
func (d *Deduper) Seed(entries []domain.FingerprintEntry) {
	for _, e := range entries {
		d.MarkProcessed(e.Identity, e.ArtistID)
	}
}

// IsDuplicate reports whether the identity collides with a marked one.
func (d *Deduper) IsDuplicate(identity domain.Identity) Match {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, token := range tokens(identity) {
		if _, ok := d.parent[token]; ok {
			return Match{Duplicate: true, ArtistID: d.owner[d.find(token)]}
		}
	}

	if d.threshold > 0 {
		if name := NormalizeName(identity.Name); name != "" {
			for committed, artistID := range d.names {
				if similarity(name, committed) >= d.threshold {
					return Match{Soft: true, ArtistID: artistID}
				}
			}
		}
	}

	return Match{}
}

// MarkProcessed records the identity's tokens against the artist id.
// Marking is append-only for the life of the deduper.
func (d *Deduper) MarkProcessed(identity domain.Identity, artistID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	toks := tokens(identity)
	if len(toks) == 0 && identity.Name == "" {
		return
	}

	var root string
	for _, token := range toks {
		if _, ok := d.parent[token]; !ok {
			d.parent[token] = token
		}
		if root == "" {
			root = d.find(token)
			continue
		}
		d.union(root, token)
		root = d.find(root)
	}
	if root != "" && d.owner[root] == "" {
		d.owner[root] = artistID
	}

	if name := NormalizeName(identity.Name); name != "" {
		if _, ok := d.names[name]; !ok {
			d.names[name] = artistID
		}
	}
}

func tokens(identity domain.Identity) []string {
	var toks []string
	if identity.ChannelID != "" {
		toks = append(toks, "channel:"+strings.ToLower(identity.ChannelID))
	}
	if identity.StreamingID != "" {
		toks = append(toks, "streaming:"+strings.ToLower(identity.StreamingID))
	}
	for _, handle := range identity.Handles {
		if norm := NormalizeName(handle); norm != "" {
			toks = append(toks, "handle:"+norm)
		}
	}
	return toks
}

func (d *Deduper) find(token string) string {
	for d.parent[token] != token {
		d.parent[token] = d.parent[d.parent[token]]
		token = d.parent[token]
	}
	return token
}

func (d *Deduper) union(a, b string) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	// Keep whichever owner came first; later merges never steal identity.
	if d.owner[rb] != "" && d.owner[ra] == "" {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName case-folds, strips diacritics and punctuation, and
// collapses whitespace so cosmetic spelling differences compare equal.
func NormalizeName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// similarity scores two normalized names in [0,1]: exact match, whole-name
// containment weighted by length ratio, then word-set overlap.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(" "+longer+" ", " "+shorter+" ") {
		return float64(len(shorter)) / float64(len(longer))
	}

	aw := strings.Fields(a)
	bw := strings.Fields(b)
	set := make(map[string]struct{}, len(aw))
	for _, w := range aw {
		set[w] = struct{}{}
	}
	var shared int
	for _, w := range bw {
		if _, ok := set[w]; ok {
			shared++
		}
	}
	union := len(aw) + len(bw) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
