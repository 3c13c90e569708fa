package alpm

import "sort"

// SortFiles sorts a file list ascending by path and removes duplicate
// paths, establishing the invariant (§3) that every per-package file
// list is sorted and deduplicated. Call this once, at load time; every
// other operation in this file assumes it already holds.
func SortFiles(files []FileEntry) []FileEntry {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	out := files[:0]
	var prev string
	first := true
	for _, f := range files {
		if !first && f.Path == prev {
			continue
		}
		out = append(out, f)
		prev = f.Path
		first = false
	}
	return out
}

// Contains does a binary search for path in a sorted file list (§4.1
// membership), returning the matching entry if found.
func Contains(files []FileEntry, path string) (FileEntry, bool) {
	i := sort.Search(len(files), func(i int) bool { return files[i].Path >= path })
	if i < len(files) && files[i].Path == path {
		return files[i], true
	}
	return FileEntry{}, false
}

// Difference yields the entries present in a but absent from b,
// directories excluded, preserving a's order. Both a and b must
// already be sorted per SortFiles.
func Difference(a, b []FileEntry) []FileEntry {
	var out []FileEntry
	i, j := 0, 0
	for i < len(a) {
		if a[i].IsDir() {
			i++
			continue
		}
		for j < len(b) && b[j].Path < a[i].Path {
			j++
		}
		if j < len(b) && b[j].Path == a[i].Path {
			i++
			continue
		}
		out = append(out, a[i])
		i++
	}
	return out
}

// Intersection yields the entries present in both a and b, directories
// excluded, preserving a's order. Both a and b must already be sorted
// per SortFiles.
func Intersection(a, b []FileEntry) []FileEntry {
	var out []FileEntry
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].IsDir() {
			i++
			continue
		}
		switch {
		case a[i].Path < b[j].Path:
			i++
		case a[i].Path > b[j].Path:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
