package history

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var adjectives = []string{
	"able", "agile", "amber", "azure", "bold", "brave", "brisk", "calm",
	"clear", "cobalt", "coral", "crisp", "daring", "deft", "eager", "epic",
	"fleet", "fresh", "gentle", "glad", "grand", "hardy", "jade", "keen",
	"lively", "lucid", "lunar", "mellow", "merry", "nimble", "noble", "polar",
	"quick", "quiet", "rapid", "robust", "sharp", "sleek", "solar", "steady",
	"stout", "sturdy", "swift", "tidy", "vivid", "warm", "wise", "zesty",
}

var nouns = []string{
	"anchor", "arrow", "aspen", "beacon", "birch", "bolt", "bridge", "brook",
	"canyon", "cedar", "comet", "crane", "creek", "delta", "dune", "ember",
	"falcon", "fern", "fjord", "forge", "glacier", "grove", "harbor", "heron",
	"horizon", "inlet", "juniper", "kestrel", "lantern", "maple", "meadow", "mesa",
	"orbit", "osprey", "pebble", "prairie", "quartz", "raven", "reef", "ridge",
	"river", "summit", "thicket", "tide", "tundra", "valley", "willow", "zephyr",
}

// GenerateID creates a memorable run id in adjective_noun_YYYYMMDD_HHMMSS
// format using crypto/rand for word selection.
func GenerateID(now time.Time) (string, error) {
	adj, err := randomWord(adjectives)
	if err != nil {
		return "", fmt.Errorf("selecting random adjective: %w", err)
	}

	noun, err := randomWord(nouns)
	if err != nil {
		return "", fmt.Errorf("selecting random noun: %w", err)
	}

	return fmt.Sprintf("%s_%s_%s", adj, noun, now.Format("20060102_150405")), nil
}

func randomWord(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("word list is empty")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("generating random number: %w", err)
	}
	return words[n.Int64()], nil
}
