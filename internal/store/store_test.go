package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

func TestNextIDEmptySet(t *testing.T) {
	require.Equal(t, "GRV_001", NextID(nil))
}

func TestNextIDUsesMaxNotCount(t *testing.T) {
	existing := []domain.Grievance{
		{ID: "GRV_001"},
		{ID: "GRV_003"},
	}
	require.Equal(t, "GRV_004", NextID(existing))
}

func TestNextIDIgnoresMalformedIDs(t *testing.T) {
	existing := []domain.Grievance{
		{ID: "GRV_002"},
		{ID: "bogus"},
		{ID: ""},
	}
	require.Equal(t, "GRV_003", NextID(existing))
}

func TestNextIDAcceptsPrefixFreeIntegers(t *testing.T) {
	existing := []domain.Grievance{{ID: "7"}}
	require.Equal(t, "GRV_008", NextID(existing))
}

func TestSeedGrievancesStatusDistribution(t *testing.T) {
	seed := SeedGrievances(time.Now())
	require.Len(t, seed, 4)

	counts := map[domain.GrievanceStatus]int{}
	for _, g := range seed {
		counts[g.Status]++
	}
	require.Equal(t, 2, counts[domain.StatusOpen])
	require.Equal(t, 1, counts[domain.StatusWIP])
	require.Equal(t, 1, counts[domain.StatusClosed])
}
