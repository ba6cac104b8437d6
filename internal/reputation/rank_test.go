package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/domain"
)

func TestDeriveRank(t *testing.T) {
	cases := []struct {
		score int
		want  domain.Rank
	}{
		{0, domain.RankIron},
		{99, domain.RankIron},
		{100, domain.RankBronze},
		{299, domain.RankBronze},
		{300, domain.RankSilver},
		{499, domain.RankSilver},
		{500, domain.RankGold},
		{10000, domain.RankGold},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveRank(tc.score), "score %d", tc.score)
	}
}

// Ranks must never regress as the score grows.
func TestDeriveRankMonotonic(t *testing.T) {
	order := map[domain.Rank]int{
		domain.RankIron:   0,
		domain.RankBronze: 1,
		domain.RankSilver: 2,
		domain.RankGold:   3,
	}
	prev := order[DeriveRank(0)]
	for s := 1; s <= 600; s++ {
		cur, ok := order[DeriveRank(s)]
		require.True(t, ok)
		require.GreaterOrEqual(t, cur, prev, "rank regressed at score %d", s)
		prev = cur
	}
}

func TestApplyGrade(t *testing.T) {
	t.Run("grade adds ten points per unit", func(t *testing.T) {
		score, rank := ApplyGrade(80, 4)
		assert.Equal(t, 120, score)
		assert.Equal(t, domain.RankBronze, rank)
	})

	t.Run("silver boundary is inclusive", func(t *testing.T) {
		score, rank := ApplyGrade(290, 1)
		assert.Equal(t, 300, score)
		assert.Equal(t, domain.RankSilver, rank)
	})
}

func TestValidGrade(t *testing.T) {
	for _, g := range []int{1, 2, 3, 4, 5} {
		assert.True(t, ValidGrade(g))
	}
	for _, g := range []int{0, -1, 6, 50} {
		assert.False(t, ValidGrade(g))
	}
}

func TestNormalizeCorrectsStaleRank(t *testing.T) {
	p := &domain.Profile{ATISScore: 320, Rank: domain.RankIron}
	Normalize(p)
	assert.Equal(t, domain.RankSilver, p.Rank)
}
