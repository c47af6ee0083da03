// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devices

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes fzf uses for interactive matching.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// initAlgo builds fzf's character class tables. Until it runs no rune
// is classed as upper case, so case-insensitive matching never folds
// the text being searched.
var initAlgo = sync.OnceFunc(func() { algo.Init("default") })

// bestFuzzy returns the devices sharing the highest fzf score for
// query, matched against "description name". No match returns nil.
func bestFuzzy(query string, devices []Device) []Device {
	initAlgo()
	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(slab16Size, slab32Size)

	bestScore := 0
	var best []Device
	for _, device := range devices {
		text := util.ToChars([]byte(device.Description + " " + device.Name))
		result, _ := algo.FuzzyMatchV2(false, true, true, &text, pattern, false, slab)
		if result.Start < 0 || result.Score <= 0 {
			continue
		}
		switch {
		case result.Score > bestScore:
			bestScore = result.Score
			best = []Device{device}
		case result.Score == bestScore:
			best = append(best, device)
		}
	}
	return best
}
