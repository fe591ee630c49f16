package feed

import (
	"fmt"
	"strconv"
)

// GenerateArticleID derives a stable article id so repeated ingestion of the
// same upstream item converges on one record. Priority: the feed's own guid,
// then the item URL, then a hash of (feedID, title, publishedAt).
func GenerateArticleID(feedID, guid, url, title string, publishedAt *int64) string {
	if guid != "" {
		return "guid:" + guid
	}

	if url != "" {
		return "url:" + url
	}

	var timestamp int64
	if publishedAt != nil {
		timestamp = *publishedAt
	}

	return "hash:" + djb2(fmt.Sprintf("%s:%s:%d", feedID, title, timestamp))
}

// djb2 hashes to a base36 string. Collision resistance is not the point; the
// hash only has to be deterministic across replicas.
func djb2(s string) string {
	hash := uint32(5381)
	for i := 0; i < len(s); i++ {
		hash = (hash * 33) ^ uint32(s[i])
	}
	return strconv.FormatUint(uint64(hash), 36)
}
