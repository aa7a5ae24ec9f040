/*
	Basic Script that generates an interleaved multi-threaded log for testing biglog-sort.

	Usage: go run ./scripts OUTPUT [LINES]
*/

package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/biglog-sort/internal/utils"
)

const (
	concurrency = 6

	// Fixed universe
	totalThreads  = 64
	totalSessions = 500

	defaultLines = 1_000_000

	// One line in this many carries no token and inherits the previous key
	untaggedEvery = 10

	progressEvery = 100_000
)

var messages = []string{
	"accepted connection",
	"reading request body",
	"cache miss, fetching from origin",
	"wrote response",
	"closing connection",
	"retrying upstream call",
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: loggen OUTPUT [LINES]")
		os.Exit(1)
	}
	output := os.Args[1]

	total := defaultLines
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 0 {
			fmt.Printf("invalid line count %q\n", os.Args[2])
			os.Exit(1)
		}
		total = n
	}

	if utils.PathExists(output) {
		fmt.Printf("%s already exists, refusing to overwrite\n", output)
		os.Exit(1)
	}

	f, err := os.Create(output)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer f.Close()

	start := time.Now()
	fmt.Printf("Generating %d lines into %s\n", total, output)

	lines := make(chan string, 1024)
	var wg sync.WaitGroup

	perWorker := total / concurrency
	for i := 0; i < concurrency; i++ {
		n := perWorker
		if i == 0 {
			n += total % concurrency
		}

		wg.Add(1)
		go func(id, n int) {
			defer wg.Done()
			runWorker(id, n, lines)
		}(i, n)
	}

	go func() {
		wg.Wait()
		close(lines)
	}()

	w := bufio.NewWriterSize(f, 1<<20)
	written := 0
	for line := range lines {
		if _, err := w.WriteString(line); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		written++
		if written%progressEvery == 0 {
			fmt.Printf("wrote %d lines\n", written)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d lines in %v\n", written, time.Since(start))
}

func runWorker(id, n int, out chan<- string) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for i := 0; i < n; i++ {
		ts := time.Now().UTC().Format(time.RFC3339Nano)
		msg := messages[rng.Intn(len(messages))]

		if rng.Intn(untaggedEvery) == 0 {
			out <- fmt.Sprintf("%s  ... %s\n", ts, msg)
			continue
		}

		tid := rng.Intn(totalThreads)
		session := rng.Intn(totalSessions)
		out <- fmt.Sprintf("%s [worker-%d] tid=%d session=%04x %s\n", ts, id, tid, session, msg)
	}
}
