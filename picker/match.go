package picker

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

var initAlgo sync.Once

type match struct {
	index int
	score int
}

// rank scores every label against query with fzf's v2 algorithm. An empty
// query keeps every label in its original order; otherwise non-matching
// labels are dropped and the rest are ordered by score, ties by position.
func rank(labels []string, query string, slab *util.Slab) []match {
	initAlgo.Do(func() { algo.Init("default") })

	pattern := []rune(strings.ToLower(strings.TrimSpace(query)))
	out := make([]match, 0, len(labels))
	if len(pattern) == 0 {
		for i := range labels {
			out = append(out, match{index: i})
		}
		return out
	}
	for i, label := range labels {
		chars := util.ToChars([]byte(label))
		res, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if res.Start < 0 {
			continue
		}
		out = append(out, match{index: i, score: res.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	return out
}
