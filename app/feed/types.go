package feed

import (
	"time"
)

type Metadata struct {
	Title       string
	Link        string
	Description string
}

type Item struct {
	GUID        string
	URL         string
	Title       string
	Content     string
	Summary     string
	PublishedAt *time.Time
}
