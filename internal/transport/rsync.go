package transport

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/tools"
)

// Rsync is the production transport: rsync over ssh for listing and byte
// movement, plain ssh for per-file deletion.
type Rsync struct {
	Host         string
	User         string
	IdentityFile string
	Runner       tools.CommandRunner
	Log          zerolog.Logger
}

func (r *Rsync) target(remoteDir string) string {
	host := r.Host
	if r.User != "" {
		host = r.User + "@" + host
	}
	return host + ":" + remoteDir
}

func (r *Rsync) sshCommand(opts Options) string {
	args := []string{"ssh"}
	if opts.ConnectTimeout > 0 {
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", int(opts.ConnectTimeout/time.Second)))
	}
	if opts.StrictHostKey {
		args = append(args, "-o", "StrictHostKeyChecking=yes")
	} else {
		args = append(args, "-o", "StrictHostKeyChecking=accept-new")
	}
	if r.IdentityFile != "" {
		args = append(args, "-i", r.IdentityFile)
	}
	return strings.Join(args, " ")
}

func (r *Rsync) sshArgs(opts Options) []string {
	args := []string{}
	if opts.ConnectTimeout > 0 {
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", int(opts.ConnectTimeout/time.Second)))
	}
	if opts.StrictHostKey {
		args = append(args, "-o", "StrictHostKeyChecking=yes")
	} else {
		args = append(args, "-o", "StrictHostKeyChecking=accept-new")
	}
	if r.IdentityFile != "" {
		args = append(args, "-i", r.IdentityFile)
	}
	if r.User != "" {
		args = append(args, "-l", r.User)
	}
	return append(args, r.Host)
}

// List returns the remote directory contents, one FileInfo per regular
// file.
func (r *Rsync) List(ctx context.Context, remoteDir string, opts Options) ([]FileInfo, error) {
	args := []string{"--list-only", "--no-motd", "-e", r.sshCommand(opts), r.target(remoteDir) + "/"}
	stdout, stderr, code, err := r.Runner.Run(ctx, "", "rsync", args...)
	if err != nil {
		return nil, opError("list", remoteDir, err)
	}
	if code != 0 {
		return nil, exitError("list", remoteDir, code, stderr)
	}
	return parseListing(string(stdout)), nil
}

// parseListing parses rsync --list-only output:
//
//	-rw-r--r--      1,234,567 2024/01/02 03:04:05 name.pkg.tar.zst
func parseListing(out string) []FileInfo {
	var files []FileInfo
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		mode := fields[0]
		if !strings.HasPrefix(mode, "-") {
			continue // directories, links, devices
		}

		size, err := strconv.ParseInt(strings.ReplaceAll(fields[1], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		mtime, err := time.Parse("2006/01/02 15:04:05", fields[2]+" "+fields[3])
		if err != nil {
			continue
		}

		name := strings.Join(fields[4:], " ")
		if name == "." || strings.Contains(name, "/") {
			continue
		}
		files = append(files, FileInfo{Name: name, Size: size, ModTime: mtime})
	}
	return files
}

// Fetch copies one remote file into localDir.
func (r *Rsync) Fetch(ctx context.Context, remoteDir, name, localDir string, opts Options) error {
	src := r.target(path.Join(remoteDir, name))
	args := []string{"-t", "-e", r.sshCommand(opts), src, localDir + "/"}
	_, stderr, code, err := r.Runner.Run(ctx, "", "rsync", args...)
	if err != nil {
		return opError("fetch", name, err)
	}
	if code != 0 {
		return exitError("fetch", name, code, stderr)
	}
	r.Log.Debug().Str("file", name).Msg("fetched remote artifact")
	return nil
}

// Push transfers the full local directory to the remote store. No
// destructive flags: nothing remote-side is deleted during transmission.
// Returns the names rsync reports as transferred.
func (r *Rsync) Push(ctx context.Context, localDir, remoteDir string, opts Options) ([]string, error) {
	args := []string{
		"-rtl",
		"--out-format=%n",
		"-e", r.sshCommand(opts),
		localDir + "/",
		r.target(remoteDir) + "/",
	}
	stdout, stderr, code, err := r.Runner.Run(ctx, "", "rsync", args...)
	if err != nil {
		return nil, opError("push", remoteDir, err)
	}
	if code != 0 {
		return nil, exitError("push", remoteDir, code, stderr)
	}

	var transferred []string
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, "/") {
			continue
		}
		transferred = append(transferred, line)
	}
	return transferred, nil
}

// Delete removes one remote file. One file per call so every deletion is
// individually attributable and loggable.
func (r *Rsync) Delete(ctx context.Context, remoteDir, name string, opts Options) error {
	remotePath := path.Join(remoteDir, name)
	args := append(r.sshArgs(opts), "rm", "-f", "--", remotePath)
	_, stderr, code, err := r.Runner.Run(ctx, "", "ssh", args...)
	if err != nil {
		return opError("delete", name, err)
	}
	if code != 0 {
		return exitError("delete", name, code, stderr)
	}
	r.Log.Debug().Str("file", name).Msg("deleted remote file")
	return nil
}
