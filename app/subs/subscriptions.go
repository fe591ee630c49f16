package subs

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jessetrippe/clarify-rss/app/database"
)

// Subscription is one entry in the agent's subscriptions file.
type Subscription struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

type subscriptionsFile struct {
	Feeds []Subscription `yaml:"feeds"`
}

// Load reads the subscriptions yaml file. A missing file is not an error;
// the replica may be populated entirely through sync.
func Load(path string) ([]Subscription, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var file subscriptionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}

	for i, sub := range file.Feeds {
		if sub.URL == "" {
			return nil, fmt.Errorf("subscription %d is missing a url", i)
		}
	}

	return file.Feeds, nil
}

// Register creates replica records for subscriptions not yet known locally
// and returns the number added. Existing feeds are matched by URL and left
// untouched so user edits and sync state survive re-registration.
func Register(subscriptions []Subscription, feedRepo database.FeedRepository, userID string) (int, error) {
	existing, err := feedRepo.ListActiveFeeds(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing feeds: %w", err)
	}

	byURL := make(map[string]bool, len(existing))
	for _, feed := range existing {
		byURL[feed.URL] = true
	}

	added := 0
	for _, sub := range subscriptions {
		if byURL[sub.URL] {
			continue
		}

		now := database.NowMillis()
		feed := database.Feed{
			ID:        uuid.NewString(),
			UserID:    userID,
			URL:       sub.URL,
			Title:     sub.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := feedRepo.SaveFeed(feed); err != nil {
			return added, fmt.Errorf("failed to register subscription %s: %w", sub.URL, err)
		}
		added++
	}

	return added, nil
}
