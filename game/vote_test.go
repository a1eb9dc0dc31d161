package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyVotesIgnoresIneligible(t *testing.T) {
	voters := []string{"a", "b", "c", "d"}
	votes := map[string]string{
		"a":        "b",
		"b":        "b",
		"c":        SkipTarget,
		"stranger": "b", // not an eligible voter
		"d":        "stranger", // not an eligible target
	}

	tally := tallyVotes(votes, voters)
	assert.Equal(t, map[string]int{"b": 2, SkipTarget: 1}, tally)
}

func TestMajorityNeedsStrictlyMoreThanHalf(t *testing.T) {
	// 3 of 4 is a majority.
	target, ok := majorityTarget(map[string]int{"b": 3, SkipTarget: 1}, 4)
	assert.True(t, ok)
	assert.Equal(t, "b", target)

	// 2 of 4 is not.
	_, ok = majorityTarget(map[string]int{"b": 2, "a": 2}, 4)
	assert.False(t, ok)

	// 2 of 3 is.
	target, ok = majorityTarget(map[string]int{"a": 2, SkipTarget: 1}, 3)
	assert.True(t, ok)
	assert.Equal(t, "a", target)
}

func TestSkipCannotWinTheVote(t *testing.T) {
	_, ok := majorityTarget(map[string]int{SkipTarget: 4}, 4)
	assert.False(t, ok)

	// Even alongside a minority player vote.
	_, ok = majorityTarget(map[string]int{SkipTarget: 3, "a": 1}, 4)
	assert.False(t, ok)
}

func TestMajorityWithNoVotes(t *testing.T) {
	_, ok := majorityTarget(map[string]int{}, 4)
	assert.False(t, ok)
}
