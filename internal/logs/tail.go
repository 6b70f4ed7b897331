package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// defaultPoll paces follow mode when the caller does not choose a rate.
const defaultPoll = 250 * time.Millisecond

// Options controls how much of the log Tail prints and whether it keeps
// watching afterwards.
type Options struct {
	// Limit is the number of trailing lines printed up front. Zero
	// prints none, which with Follow gives only new lines.
	Limit int
	// Follow keeps polling for appended lines until ctx is canceled.
	Follow bool
	// Poll is the follow-mode polling interval; zero means defaultPoll.
	Poll time.Duration
}

// Tail writes the end of the log file at path to w. Without Follow it
// returns after the initial read. With Follow it blocks, printing lines
// as they are appended, and returns ctx.Err() once ctx is canceled.
// A file that shrinks mid-follow is treated as rotated and reread from
// the start.
func Tail(ctx context.Context, w io.Writer, path string, opts Options) error {
	lines, offset, err := lastLines(path, opts.Limit)
	if err != nil {
		return err
	}
	if err := writeLines(w, lines); err != nil {
		return err
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if info, err := os.Stat(path); err == nil && info.Size() < offset {
			offset = 0
		}
		lines, next, err := readForward(path, offset)
		if err != nil {
			return err
		}
		if err := writeLines(w, lines); err != nil {
			return err
		}
		offset = next
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// lastLines returns up to limit trailing lines and the offset at which
// follow mode should resume. A missing file yields no lines and offset
// zero so a later appearance is read from the beginning.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Ring buffer: one pass over the file, only the last limit lines
	// retained.
	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// readForward returns the complete lines between offset and the current
// end of file, plus the new offset. A file that vanished mid-follow
// resets the offset so rotation is survived.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, next, nil
}
