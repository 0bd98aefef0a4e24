package audio

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// commandRunner executes external commands, returning stdout and stderr
// separately. The decoder streams raw PCM on stdout while ffmpeg writes
// diagnostics to stderr.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// tempFileCreator creates temporary files.
type tempFileCreator interface {
	CreateTemp(dir, pattern string) (*os.File, error)
}

// fileRemover removes files.
type fileRemover interface {
	Remove(name string) error
}

// --- Default implementations using real OS functions ---

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- name and args are controlled by the loader, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// osTempFileCreator implements tempFileCreator using os.CreateTemp.
type osTempFileCreator struct{}

func (osTempFileCreator) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

// osFileRemover implements fileRemover using os.Remove.
type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}
