// Package fallback picks a library image to show on days without tasks.
//
// The choice depends only on the calendar date and the set of library file
// names: the MD5 digest of the ISO date ("2006-01-02"), read as a big-endian
// integer, modulo the number of images, indexes the name-sorted library.
// The same date maps to the same image across runs until the library
// changes.
package fallback

import (
	"crypto/md5"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout is the canonical date form that is hashed.
const DateLayout = "2006-01-02"

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Selector chooses fallback images from a library directory.
type Selector struct {
	Library string
}

// Images returns the library images (png, jpg, jpeg) sorted by name.
// A missing library has no images.
func (s *Selector) Images() ([]string, error) {
	entries, err := os.ReadDir(s.Library)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.Library, name)
	}
	return paths, nil
}

// Select returns the image for the calendar date of day, in day's location.
// ok is false when the library is empty, missing or unreadable.
func (s *Selector) Select(day time.Time) (path string, ok bool) {
	images, err := s.Images()
	if err != nil || len(images) == 0 {
		return "", false
	}
	return images[Index(day.Format(DateLayout), len(images))], true
}

// Index returns MD5(date) mod n. n must be positive.
func Index(date string, n int) int {
	sum := md5.Sum([]byte(date))
	m := uint64(n)
	var r uint64
	for _, b := range sum {
		r = (r<<8 | uint64(b)) % m
	}
	return int(r)
}
