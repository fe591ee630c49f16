package feed

import (
	"strings"
	"testing"
)

func TestGenerateArticleID_GUIDPreferred(t *testing.T) {
	publishedAt := int64(1000)
	id := GenerateArticleID("f1", "tag:example.com,2024:post-1", "https://example.com/post-1", "Post 1", &publishedAt)

	if id != "guid:tag:example.com,2024:post-1" {
		t.Errorf("Expected guid-based id, got %q", id)
	}
}

func TestGenerateArticleID_URLFallback(t *testing.T) {
	id := GenerateArticleID("f1", "", "https://example.com/post-1", "Post 1", nil)

	if id != "url:https://example.com/post-1" {
		t.Errorf("Expected url-based id, got %q", id)
	}
}

func TestGenerateArticleID_HashFallback(t *testing.T) {
	publishedAt := int64(1735689600000)
	id := GenerateArticleID("f1", "", "", "Post 1", &publishedAt)

	if !strings.HasPrefix(id, "hash:") {
		t.Errorf("Expected hash-based id, got %q", id)
	}
}

func TestGenerateArticleID_Deterministic(t *testing.T) {
	publishedAt := int64(1735689600000)

	first := GenerateArticleID("f1", "", "", "Post 1", &publishedAt)
	second := GenerateArticleID("f1", "", "", "Post 1", &publishedAt)

	if first != second {
		t.Errorf("Expected identical inputs to hash identically: %q vs %q", first, second)
	}
}

func TestGenerateArticleID_HashDistinguishesInputs(t *testing.T) {
	publishedAt := int64(1735689600000)

	base := GenerateArticleID("f1", "", "", "Post 1", &publishedAt)
	otherFeed := GenerateArticleID("f2", "", "", "Post 1", &publishedAt)
	otherTitle := GenerateArticleID("f1", "", "", "Post 2", &publishedAt)
	noDate := GenerateArticleID("f1", "", "", "Post 1", nil)

	for _, other := range []string{otherFeed, otherTitle, noDate} {
		if other == base {
			t.Errorf("Expected distinct inputs to produce distinct ids, both got %q", base)
		}
	}
}
