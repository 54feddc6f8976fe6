package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ArtistScout/internal/domain"
)

func TestSharedHardKeyFlagsDuplicate(t *testing.T) {
	t.Parallel()

	d := New(0.85)
	d.MarkProcessed(domain.Identity{ChannelID: "UC123", Name: "Night Harbor"}, "artist-1")

	match := d.IsDuplicate(domain.Identity{ChannelID: "UC123", Name: "Completely Different"})
	require.True(t, match.Duplicate)
	require.Equal(t, "artist-1", match.ArtistID)

	match = d.IsDuplicate(domain.Identity{ChannelID: "UC999", Name: "Unrelated Act"})
	require.False(t, match.Duplicate)
}

func TestGroupingIsTransitive(t *testing.T) {
	t.Parallel()

	d := New(0)
	// A: channel only. B: same channel plus a streaming id. C shares only
	// B's streaming id but must still resolve to A's cluster.
	d.MarkProcessed(domain.Identity{ChannelID: "UC1"}, "artist-a")
	d.MarkProcessed(domain.Identity{ChannelID: "UC1", StreamingID: "sp1"}, "artist-b")

	match := d.IsDuplicate(domain.Identity{StreamingID: "sp1"})
	require.True(t, match.Duplicate)
	require.Equal(t, "artist-a", match.ArtistID)
}

func TestHandleTokensMatchAcrossIdentities(t *testing.T) {
	t.Parallel()

	d := New(0)
	d.MarkProcessed(domain.Identity{ChannelID: "UC1", Handles: []string{"NightHarbor"}}, "artist-1")

	match := d.IsDuplicate(domain.Identity{Handles: []string{"nightharbor"}})
	require.True(t, match.Duplicate)
}

func TestNameOnlySimilarityFlagsWithoutRejecting(t *testing.T) {
	t.Parallel()

	d := New(0.85)
	d.MarkProcessed(domain.Identity{ChannelID: "UC1", Name: "Café Noir"}, "artist-1")

	match := d.IsDuplicate(domain.Identity{ChannelID: "UC2", Name: "cafe noir"})
	require.False(t, match.Duplicate, "name similarity must not hard-reject")
	require.True(t, match.Soft)
	require.Equal(t, "artist-1", match.ArtistID)
}

func TestSeedCatchesCrossSessionDuplicates(t *testing.T) {
	t.Parallel()

	d := New(0.85)
	d.Seed([]domain.FingerprintEntry{
		{ArtistID: "stored-1", Identity: domain.Identity{ChannelID: "UC1", StreamingID: "sp1"}},
	})

	match := d.IsDuplicate(domain.Identity{StreamingID: "sp1"})
	require.True(t, match.Duplicate)
	require.Equal(t, "stored-1", match.ArtistID)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "cafe noir", NormalizeName("  Café-Noir!  "))
	require.Equal(t, "dj shadow 99", NormalizeName("DJ_Shadow*99"))
	require.Equal(t, "", NormalizeName("!!!"))
}

func TestSimilarityContainmentIsWholeWord(t *testing.T) {
	t.Parallel()

	// "ann" embedded inside "annual report" must not count as containment.
	require.Equal(t, 0.0, similarity("ann", "annabelle"))
	require.Greater(t, similarity("night harbor", "night harbor band"), 0.6)
}
