package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// hookKeywords boost a topic's score when present
var hookKeywords = []string{
	"forgotten", "lost", "mystery", "disaster", "ancient", "secret",
	"betrayal", "empire", "war", "assassination", "discovered", "ruins",
	"last", "first", "vanished", "curse", "treasure", "plague",
	"rebellion", "conspiracy",
}

// Fetcher pulls candidate topics from Reddit and tracks what has
// already been turned into a video.
type Fetcher struct {
	cfg        config.TopicsConfig
	logPath    string
	usedTopics map[string]bool
}

// New creates a new topic Fetcher
func New(cfg config.TopicsConfig, usedTopicsLog string) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		logPath:    usedTopicsLog,
		usedTopics: loadUsedTopics(usedTopicsLog),
	}
}

// Run fetches, scores, deduplicates and returns the best unused topic
func (f *Fetcher) Run(ctx context.Context) (*types.Topic, error) {
	log.Println("[topics] Fetching candidate topics...")

	client, err := newRedditClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -f.cfg.LookbackDays)
	var candidates []*types.Topic

	for _, subreddit := range f.cfg.Subreddits {
		posts, _, err := client.Subreddit.HotPosts(ctx, subreddit, &reddit.ListOptions{
			Limit: f.cfg.MaxCandidates,
		})
		if err != nil {
			log.Printf("[topics] r/%s error: %v", subreddit, err)
			continue
		}

		for _, post := range posts {
			if post.Created != nil && post.Created.Before(cutoff) {
				continue
			}
			if post.Score < f.cfg.MinScore {
				continue
			}
			if post.NumberOfComments < f.cfg.MinComments {
				continue
			}

			topic := &types.Topic{
				ID:        fmt.Sprintf("reddit_%s", post.ID),
				Title:     post.Title,
				Narration: strings.TrimSpace(post.Body),
				Source:    fmt.Sprintf("r/%s", subreddit),
				SourceURL: fmt.Sprintf("https://reddit.com%s", post.Permalink),
				Score:     post.Score,
				Keywords:  extractKeywords(post.Title + " " + post.Body),
			}
			if post.Created != nil {
				topic.PublishedAt = post.Created.Format(time.RFC3339)
			}
			candidates = append(candidates, topic)
		}
		log.Printf("[topics] r/%s: %d candidates so far", subreddit, len(candidates))
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no topics found from any subreddit")
	}

	for _, t := range candidates {
		t.Score += hookBoost(t)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	for _, t := range candidates {
		if !f.usedTopics[t.ID] {
			log.Printf("[topics] ✅ Selected: %q (score: %d)", t.Title, t.Score)
			f.markUsed(t)
			return t, nil
		}
	}

	return nil, fmt.Errorf("all candidate topics have been used already")
}

// newRedditClient authenticates from env vars when present and falls
// back to the read-only client, which is enough for hot post listings.
func newRedditClient() (*reddit.Client, error) {
	id := os.Getenv("REDDIT_CLIENT_ID")
	secret := os.Getenv("REDDIT_CLIENT_SECRET")
	username := os.Getenv("REDDIT_USERNAME")
	password := os.Getenv("REDDIT_PASSWORD")

	if id != "" && secret != "" && username != "" && password != "" {
		return reddit.NewClient(reddit.Credentials{
			ID:       id,
			Secret:   secret,
			Username: username,
			Password: password,
		})
	}
	return reddit.NewReadonlyClient()
}

func hookBoost(t *types.Topic) int {
	text := strings.ToLower(t.Title + " " + t.Narration)
	boost := 0
	for _, kw := range hookKeywords {
		if strings.Contains(text, kw) {
			boost += 50
		}
	}
	return boost
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range hookKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeTitle turns a topic title into a filesystem-safe directory
// name. Distinct titles that collapse to the same name get distinct
// directories through the run ID appended by the caller.
func SanitizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = unsafeChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		s = "topic"
	}
	return s
}

func loadUsedTopics(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return used
	}
	for _, id := range ids {
		used[id] = true
	}
	return used
}

func (f *Fetcher) markUsed(t *types.Topic) {
	f.usedTopics[t.ID] = true
	ids := make([]string, 0, len(f.usedTopics))
	for id := range f.usedTopics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := os.MkdirAll(filepath.Dir(f.logPath), 0755); err != nil {
		log.Printf("[topics] Warning: cannot create log dir: %v", err)
		return
	}
	data, _ := json.MarshalIndent(ids, "", "  ")
	if err := os.WriteFile(f.logPath, data, 0644); err != nil {
		log.Printf("[topics] Warning: cannot persist used topics: %v", err)
	}
}
