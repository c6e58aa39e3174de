package dedrm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/errs"
	"github.com/kindleget/kindle-downloader/internal/logger"
)

const (
	// DefaultTool is the conversion binary looked up on PATH when the
	// KINDLE_DEDRM_TOOL override is unset.
	DefaultTool = "dedrm"

	toolEnv = "KINDLE_DEDRM_TOOL"
)

// Decryptor strips protection from inputPath and writes the cleartext
// book to outputPath.
type Decryptor interface {
	Decrypt(ctx context.Context, inputPath, outputPath, key string) error
}

// CommandDecryptor runs an external conversion tool per file. The tool
// is expected to accept "-k <key> <input> <output>" and exit non-zero on
// failure.
type CommandDecryptor struct {
	tool string
	log  *logger.Logger
}

// NewCommandDecryptor builds a decryptor around the configured tool,
// honoring the KINDLE_DEDRM_TOOL environment override.
func NewCommandDecryptor() *CommandDecryptor {
	tool := strings.TrimSpace(os.Getenv(toolEnv))
	if tool == "" {
		tool = DefaultTool
	}
	return &CommandDecryptor{tool: tool, log: logger.New("dedrm")}
}

// Available reports whether the conversion tool can be found on PATH.
func (d *CommandDecryptor) Available() bool {
	_, err := exec.LookPath(d.tool)
	return err == nil
}

// Decrypt runs the tool on inputPath. A failed run removes any partial
// output so a later retry starts clean.
func (d *CommandDecryptor) Decrypt(ctx context.Context, inputPath, outputPath, key string) error {
	args := buildArgs(inputPath, outputPath, key)
	d.log.Debug().Str("tool", d.tool).Strs("args", args).Msg("running conversion tool")

	cmd := exec.CommandContext(ctx, d.tool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		if msg := strings.TrimSpace(string(output)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &errs.DecryptionError{Path: inputPath, Err: err}
	}
	return nil
}

// buildArgs assembles the tool invocation. The key flag is omitted when
// no key was configured, letting the tool fall back to its own keychain.
func buildArgs(inputPath, outputPath, key string) []string {
	args := make([]string, 0, 4)
	if key != "" {
		args = append(args, "-k", key)
	}
	return append(args, inputPath, outputPath)
}
