package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/amidaware/schedctl/console/utils"
	"github.com/amidaware/schedctl/shared"
	gocmd "github.com/go-cmd/cmd"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupported        = errors.New("no syntax check for script type")
	ErrInterpreterMissing = errors.New("interpreter not found")
	ErrTimeout            = errors.New("syntax check timed out")
)

type checker struct {
	bin  string
	args func(path string) []string
	ext  string
}

var checkers = map[shared.ScriptType]checker{
	shared.ScriptShell: {
		bin:  "bash",
		args: func(p string) []string { return []string{"-n", p} },
		ext:  ".sh",
	},
	shared.ScriptPython: {
		bin:  "python3",
		args: func(p string) []string { return []string{"-m", "py_compile", p} },
		ext:  ".py",
	},
	shared.ScriptNodeJS: {
		bin:  "node",
		args: func(p string) []string { return []string{"--check", p} },
		ext:  ".js",
	},
}

type Result struct {
	OK       bool
	ExitCode int
	Output   string
}

type Linter struct {
	Timeout time.Duration
	log     *logrus.Entry
}

func New(logger *logrus.Logger) *Linter {
	return &Linter{Timeout: 10 * time.Second, log: logger.WithField("component", "lint")}
}

// Check parses script with its interpreter without running it
func (l *Linter) Check(ctx context.Context, script shared.Script) (Result, error) {
	ck, ok := checkers[script.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupported, string(script.Type))
	}
	bin, err := exec.LookPath(ck.bin)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrInterpreterMissing, ck.bin)
	}

	dir, err := os.MkdirTemp("", "schedctl-lint")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "script"+ck.ext)
	if err := os.WriteFile(path, []byte(script.Content), 0600); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	envCmd := gocmd.NewCmdOptions(gocmd.Options{Buffered: true}, bin, ck.args(path)...)
	statusChan := envCmd.Start()

	var status gocmd.Status
	select {
	case status = <-statusChan:
	case <-ctx.Done():
		envCmd.Stop()
		<-statusChan
		return Result{}, ErrTimeout
	}

	if status.Error != nil {
		return Result{}, status.Error
	}

	out := strings.Join(append(status.Stdout, status.Stderr...), "\n")
	out = strings.ReplaceAll(utils.CleanString(out), path, script.Name)
	l.log.WithFields(logrus.Fields{"script": script.Name, "exit": status.Exit}).Debugln("checked")

	return Result{OK: status.Exit == 0, ExitCode: status.Exit, Output: out}, nil
}
