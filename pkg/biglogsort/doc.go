// Package biglogsort reorders the lines of a file too large to sort in
// memory. Each line is keyed by a keyword pass over the file (by default the
// first-seen order of tokens such as "tid=7"), then the lines are external
// sorted by that key with a bounded buffer and written out.
//
// Example:
//
//	stats, err := biglogsort.Sort("app.log", os.Stdout,
//	    biglogsort.WithKeywords("session=", "tid="),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Fprintln(os.Stderr, stats.Lines, "lines sorted")
package biglogsort
