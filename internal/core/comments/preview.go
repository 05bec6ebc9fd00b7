package comments

// PreviewSize is the number of most recent comments shown under a post in the feed
const PreviewSize = 2

// GroupRecent groups comments by post, keeping the first perPost of each.
// Input must already be ordered newest first. Every id in postIDs gets a
// non-nil slice, possibly empty.
func GroupRecent(postIDs []string, all []*Comment, perPost int) map[string][]*Comment {
	grouped := make(map[string][]*Comment, len(postIDs))
	for _, id := range postIDs {
		grouped[id] = []*Comment{}
	}

	for _, c := range all {
		bucket, ok := grouped[c.PostID]
		if !ok || len(bucket) >= perPost {
			continue
		}
		grouped[c.PostID] = append(bucket, c)
	}

	return grouped
}
