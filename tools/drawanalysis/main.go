// Standalone analysis of the Secret Santa draw.
// It runs the same engine the bot uses and checks that every derangement is
// equally likely and that nobody ever draws themselves.
package main

import (
	"flag"
	"fmt"
	"math"
	"sort"
	"strings"

	"santa/models"
	"santa/service"
)

// derangementCount returns !n, the number of permutations of n items without fixed points
func derangementCount(n int) int {
	if n == 0 {
		return 1
	}
	if n == 1 {
		return 0
	}
	prev2, prev1 := 1, 0
	for i := 2; i <= n; i++ {
		prev2, prev1 = prev1, (i-1)*(prev1+prev2)
	}
	return prev1
}

func participants(n int) []*models.User {
	users := make([]*models.User, n)
	for i := range users {
		id := int64(i + 1)
		users[i] = &models.User{
			DiscordID:  id,
			Handle:     fmt.Sprintf("@user%d", id),
			Name:       fmt.Sprintf("User %d", id),
			Wish:       "anything",
			Registered: true,
		}
	}
	return users
}

func main() {
	trials := flag.Int("trials", 100000, "draws per group size")
	flag.Parse()

	fmt.Println("=== Secret Santa Draw Analysis ===")

	engine := service.NewDrawEngine()
	for _, n := range []int{2, 3, 4, 5} {
		analyzeUniformity(engine, n, *trials)
	}

	fmt.Println("\n=== CYCLE STRUCTURE (12 participants) ===")
	analyzeCycles(engine, 12, *trials/10)
}

// analyzeUniformity draws repeatedly and compares observed frequencies with a uniform distribution
func analyzeUniformity(engine service.DrawEngine, n, trials int) {
	users := participants(n)
	counts := make(map[string]int)
	selfPairings := 0

	for i := 0; i < trials; i++ {
		assignment, err := engine.Draw(users)
		if err != nil {
			fmt.Printf("N=%d: draw failed: %v\n", n, err)
			return
		}

		var key strings.Builder
		for _, p := range assignment.Pairings {
			if p.Giver.DiscordID == p.Recipient.DiscordID {
				selfPairings++
			}
			fmt.Fprintf(&key, "%d,", p.Recipient.DiscordID)
		}
		counts[key.String()]++
	}

	expectedKinds := derangementCount(n)
	expected := float64(trials) / float64(expectedKinds)
	chiSquared := 0.0
	for _, c := range counts {
		chiSquared += math.Pow(float64(c)-expected, 2) / expected
	}

	fmt.Printf("\nN=%d | Trials: %d | Derangements seen: %d of %d | Self pairings: %d | χ²: %.2f (df %d)",
		n, trials, len(counts), expectedKinds, selfPairings, chiSquared, expectedKinds-1)

	if len(counts) == expectedKinds && selfPairings == 0 {
		fmt.Println(" ✓ PASS")
	} else {
		fmt.Println(" ✗ FAIL")
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		deviation := (float64(counts[k]) - expected) / expected * 100
		barLength := int(float64(counts[k]) / expected * 20)
		fmt.Printf("  [%s] %7d (%+5.2f%%) %s\n", strings.TrimSuffix(k, ","), counts[k], deviation, strings.Repeat("█", barLength))
	}
}

// analyzeCycles reports how often the draw forms a single gift-giving chain
func analyzeCycles(engine service.DrawEngine, n, trials int) {
	users := participants(n)
	lengths := make(map[int]int)
	singleCycle := 0

	for i := 0; i < trials; i++ {
		assignment, err := engine.Draw(users)
		if err != nil {
			fmt.Printf("draw failed: %v\n", err)
			return
		}

		next := assignment.Recipients()
		visited := make(map[int64]bool, n)
		cycles := 0
		for _, u := range users {
			if visited[u.DiscordID] {
				continue
			}
			length := 0
			for id := u.DiscordID; !visited[id]; id = next[id] {
				visited[id] = true
				length++
			}
			lengths[length]++
			cycles++
		}
		if cycles == 1 {
			singleCycle++
		}
	}

	fmt.Printf("Single chain through everyone: %.2f%% of draws\n", float64(singleCycle)/float64(trials)*100)
	fmt.Println("Cycle length distribution:")
	for length := 2; length <= n; length++ {
		if lengths[length] > 0 {
			fmt.Printf("  length %2d: %d\n", length, lengths[length])
		}
	}
}
