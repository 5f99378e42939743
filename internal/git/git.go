package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// GetChangedFiles runs git diff against baseRef inside dir and returns the
// changed files with their changed line numbers in the working tree.
// Paths are absolute, anchored at the repository top level.
func GetChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	if baseRef == "" {
		baseRef = "HEAD"
	}
	top, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	output, err := runGit(ctx, dir, "diff", "-U0", "--no-color", baseRef)
	if err != nil {
		return nil, err
	}

	changes, err := parseDiff(output)
	if err != nil {
		return nil, err
	}
	return anchor(strings.TrimSpace(string(top)), changes), nil
}

func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// anchor joins the repository-relative paths git reports onto top.
func anchor(top string, changes []ChangedFile) []ChangedFile {
	for i := range changes {
		changes[i].Path = filepath.Join(top, filepath.FromSlash(changes[i].Path))
	}
	return changes
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			if currentFile != nil {
				changes = append(changes, *currentFile)
				currentFile = nil
			}
			// a/path b/path; the b/ side is the working tree
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		if strings.HasPrefix(line, "+++ ") {
			// deleted files have no new side
			if strings.TrimSpace(strings.TrimPrefix(line, "+++ ")) == "/dev/null" {
				currentFile.Path = ""
			}
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) < 2 {
				continue
			}
			startLine, err := strconv.Atoi(matches[1])
			if err != nil {
				return nil, fmt.Errorf("bad hunk header %q: %w", line, err)
			}
			count := 1
			if matches[2] != "" {
				if count, err = strconv.Atoi(matches[2]); err != nil {
					return nil, fmt.Errorf("bad hunk header %q: %w", line, err)
				}
			}

			// a pure deletion touches the line it was removed after
			if count == 0 {
				if startLine > 0 {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine)
				}
				continue
			}
			for i := 0; i < count; i++ {
				currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}

	out := changes[:0]
	for _, c := range changes {
		if c.Path != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
