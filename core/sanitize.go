package core

import "net/url"

var tagBucketPrefix = []byte("tags/")

func PathEscape(name string) string {
	return url.PathEscape(name)
}

// tagBucket names the bucket holding the ids of notes tagged with tag.
func tagBucket(tag string) []byte {
	return append(append([]byte{}, tagBucketPrefix...), []byte(PathEscape(tag))...)
}
