package topics

import (
	"path/filepath"
	"testing"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"
)

func testTopicsConfig() config.TopicsConfig {
	return config.TopicsConfig{Subreddits: []string{"history"}}
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"The Lost City of Z":        "the_lost_city_of_z",
		"  What?! A plague: 1347  ": "what_a_plague_1347",
		"":                          "topic",
		"!!!":                       "topic",
	}
	for in, want := range cases {
		if got := SanitizeTitle(in); got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	long := "a very long title that keeps going and going and going far past sixty characters"
	if got := SanitizeTitle(long); len(got) > 60 {
		t.Errorf("sanitized title is %d chars, want <= 60", len(got))
	}
}

func TestHookBoost(t *testing.T) {
	plain := &types.Topic{Title: "A quiet afternoon"}
	if boost := hookBoost(plain); boost != 0 {
		t.Errorf("plain title boost = %d, want 0", boost)
	}
	hooked := &types.Topic{Title: "The forgotten empire and its lost treasure"}
	if boost := hookBoost(hooked); boost != 150 {
		t.Errorf("hooked title boost = %d, want 150 (three keywords)", boost)
	}
}

func TestUsedTopicsRoundTrip(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "used.json")
	f := New(testTopicsConfig(), logPath)
	f.markUsed(&types.Topic{ID: "reddit_abc"})
	f.markUsed(&types.Topic{ID: "reddit_def"})

	reloaded := loadUsedTopics(logPath)
	if !reloaded["reddit_abc"] || !reloaded["reddit_def"] {
		t.Errorf("reloaded set missing entries: %v", reloaded)
	}
}

func TestLoadUsedTopics_MissingFile(t *testing.T) {
	used := loadUsedTopics(filepath.Join(t.TempDir(), "nope.json"))
	if len(used) != 0 {
		t.Errorf("missing file should yield empty set, got %v", used)
	}
}
