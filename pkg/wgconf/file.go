package wgconf

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File edits a wg-quick style configuration in place. Writes go through a
// temporary file and a rename so readers never observe a partial file.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{
		path: path,
	}
}

func (f *File) Path() string {
	return f.path
}

// AppendPeer adds a [Peer] block unless one with the same public key exists.
func (f *File) AppendPeer(publicKey string, allowedIPs []string) error {
	if len(publicKey) == 0 {
		return errors.New("public key is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sections, err := f.read()
	if err != nil {
		return err
	}

	for _, s := range sections {
		if s.isPeer(publicKey) {
			return nil
		}
	}

	sections = append(sections, section{
		lines: []string{
			"[Peer]",
			"PublicKey = " + publicKey,
			"AllowedIPs = " + strings.Join(allowedIPs, ", "),
		},
	})
	return f.write(sections)
}

// RemovePeer drops the [Peer] block of publicKey and reports whether one was
// found.
func (f *File) RemovePeer(publicKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sections, err := f.read()
	if err != nil {
		return false, err
	}

	kept := sections[:0]
	var removed bool
	for _, s := range sections {
		if s.isPeer(publicKey) {
			removed = true
			continue
		}
		kept = append(kept, s)
	}

	if !removed {
		return false, nil
	}
	return true, f.write(kept)
}

// PeerPublicKeys lists the public keys of every [Peer] block in file order.
func (f *File) PeerPublicKeys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sections, err := f.read()
	if err != nil {
		return nil, err
	}

	var publicKeys []string
	for _, s := range sections {
		if publicKey, ok := s.peerPublicKey(); ok {
			publicKeys = append(publicKeys, publicKey)
		}
	}
	return publicKeys, nil
}

type section struct {
	lines []string
}

func (s section) header() string {
	for _, line := range s.lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return strings.ToLower(trimmed)
		}
	}
	return ""
}

func (s section) peerPublicKey() (string, bool) {
	if s.header() != "[peer]" {
		return "", false
	}
	for _, line := range s.lines {
		key, value, ok := cutKeyValue(line)
		if ok && key == "publickey" {
			return value, true
		}
	}
	return "", false
}

func (s section) isPeer(publicKey string) bool {
	value, ok := s.peerPublicKey()
	return ok && value == publicKey
}

// cutKeyValue accepts both "Key = Value" and the space separated form some
// userspace implementations write.
func cutKeyValue(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
		return "", "", false
	}

	idx := strings.IndexAny(line, " \t=")
	if idx == -1 {
		return "", "", false
	}
	return strings.ToLower(line[:idx]), strings.TrimLeft(line[idx:], " \t="), true
}

func (f *File) read() ([]section, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wireguard config %s: %w", f.path, err)
	}
	defer file.Close()

	var sections []section
	current := section{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(strings.TrimSpace(line), "[") && current.header() != "" {
			sections = append(sections, current.trimmed())
			current = section{}
		}
		current.lines = append(current.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wireguard config %s: %w", f.path, err)
	}
	if len(current.lines) != 0 {
		sections = append(sections, current.trimmed())
	}
	return sections, nil
}

func (s section) trimmed() section {
	end := len(s.lines)
	for end > 0 && strings.TrimSpace(s.lines[end-1]) == "" {
		end--
	}
	return section{lines: s.lines[:end]}
}

func (f *File) write(sections []section) error {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, line := range s.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return writeFileAtomic(f.path, []byte(sb.String()), 0600)
}

func writeFileAtomic(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanup := func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmpFile.Write(content); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
