package game

// SkipTarget is the pseudo-target for abstaining. It is tallied like any
// other target but can never win the vote.
const SkipTarget = "skip"

// tallyVotes counts casts per target. Casts from non-eligible voters or for
// targets outside the eligible set are ignored.
func tallyVotes(votes map[string]string, voters []string) map[string]int {
	eligible := make(map[string]bool, len(voters))
	for _, v := range voters {
		eligible[v] = true
	}
	tally := make(map[string]int)
	for voter, target := range votes {
		if !eligible[voter] {
			continue
		}
		if target != SkipTarget && !eligible[target] {
			continue
		}
		tally[target]++
	}
	return tally
}

// majorityTarget returns the player holding a strict majority among the
// eligible voters, if any. Skip never qualifies, so a majority for skip and
// any tie both resolve to no majority.
func majorityTarget(tally map[string]int, numVoters int) (string, bool) {
	for target, count := range tally {
		if target == SkipTarget {
			continue
		}
		if count > numVoters/2 {
			return target, true
		}
	}
	return "", false
}
