package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sensiblebit/certcheck"
)

// PathProvider supplies the target directory when none was given on the
// command line.
type PathProvider interface {
	TargetPath() (string, error)
}

// PromptProvider asks for the directory on Out and reads one line from In.
type PromptProvider struct {
	In  io.Reader
	Out io.Writer
}

// TargetPath prints the prompt and returns the trimmed line that was entered.
// An empty answer is an *certcheck.AmbiguousInputError.
func (p PromptProvider) TargetPath() (string, error) {
	if _, err := fmt.Fprint(p.Out, "Directory to check: "); err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading directory path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", &certcheck.AmbiguousInputError{}
	}
	return path, nil
}

// ResolveTarget returns the one directory a check runs against. A single
// argument is used as is. With no arguments the provider is asked; a nil
// provider means no path can be obtained. Anything else is an
// *certcheck.AmbiguousInputError.
func ResolveTarget(args []string, provider PathProvider) (string, error) {
	switch len(args) {
	case 0:
		if provider == nil {
			return "", &certcheck.AmbiguousInputError{}
		}
		return provider.TargetPath()
	case 1:
		if strings.TrimSpace(args[0]) == "" {
			return "", &certcheck.AmbiguousInputError{}
		}
		return args[0], nil
	default:
		return "", &certcheck.AmbiguousInputError{Args: args}
	}
}
