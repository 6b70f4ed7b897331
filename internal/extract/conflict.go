package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"unbake/internal/config"
	"unbake/internal/fileutil"
)

// Prompter resolves a destination collision to a conflict policy. It is
// only consulted when extract.on_conflict is "ask".
type Prompter interface {
	Resolve(path string) string
}

// terminalPrompter asks on the controlling terminal, defaulting to skip.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p *terminalPrompter) Resolve(path string) string {
	fmt.Fprintf(p.out, "%s already exists.\n", path)
	for {
		fmt.Fprint(p.out, "[S]kip, [o]verwrite, or [r]ename: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return config.ConflictSkip
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "s":
			return config.ConflictSkip
		case "o":
			return config.ConflictOverwrite
		case "r":
			return config.ConflictRename
		}
	}
}

// resolveConflict decides where, and whether, to write an entry whose
// destination already exists. The second return is false for a skip.
func (e *Extractor) resolveConflict(dest string) (string, bool) {
	if _, err := os.Lstat(dest); err != nil {
		return dest, true
	}
	policy := e.cfg.Extract.OnConflict
	if policy == config.ConflictAsk {
		if e.prompter != nil {
			policy = e.prompter.Resolve(dest)
		} else {
			// No terminal to ask on; skipping is the only safe answer.
			policy = config.ConflictSkip
		}
	}
	switch policy {
	case config.ConflictOverwrite:
		return dest, true
	case config.ConflictRename:
		return fileutil.UniquePath(dest, true), true
	default:
		return dest, false
	}
}
