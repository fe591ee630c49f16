package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       norm.NFC.String(parsed.Title),
		Link:        parsed.Link,
		Description: parsed.Description,
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:    item.GUID,
		URL:     item.Link,
		Title:   norm.NFC.String(item.Title),
		Content: item.Content,
		Summary: item.Description,
	}

	// Feeds without per-item content often put the full body in the
	// description element.
	if normalized.Content == "" {
		normalized.Content = cmp.Or(item.Content, item.Description)
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed
	}

	return normalized
}
