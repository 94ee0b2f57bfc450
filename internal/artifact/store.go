// Package artifact stores the final-page screenshots captured for tasks.
package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store saves a base64 PNG and returns a reference the API can serve.
type Store interface {
	SaveScreenshot(ctx context.Context, taskID, payload string) (string, error)
}

// Disabled drops screenshots. Used when no artifact directory is configured.
type Disabled struct{}

func (Disabled) SaveScreenshot(context.Context, string, string) (string, error) {
	return "", nil
}

// LocalStore writes screenshots under a root directory and serves them back
// at baseURL.
type LocalStore struct {
	rootDir string
	baseURL string
}

func NewLocalStore(rootDir, baseURL string) (*LocalStore, error) {
	root := strings.TrimSpace(rootDir)
	if root == "" {
		return nil, errors.New("artifact root dir is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "screenshots"), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directories: %w", err)
	}

	prefix := strings.TrimSpace(baseURL)
	if prefix == "" {
		prefix = "/artifacts"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &LocalStore{rootDir: root, baseURL: strings.TrimSuffix(prefix, "/")}, nil
}

// BaseURL is the mount point Handler expects to be served under.
func (s *LocalStore) BaseURL() string { return s.baseURL }

// Handler serves saved artifacts read-only.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix(s.baseURL+"/", http.FileServer(http.Dir(s.rootDir)))
}

// SaveScreenshot writes the decoded PNG atomically and returns its URL path.
func (s *LocalStore) SaveScreenshot(ctx context.Context, taskID, payload string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if strings.TrimSpace(taskID) == "" {
		return "", errors.New("task id is required")
	}
	decoded, err := decodePNG(payload)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%d.png", safeName(taskID), time.Now().UTC().UnixNano())
	relative := filepath.ToSlash(filepath.Join("screenshots", name))
	path := filepath.Join(s.rootDir, relative)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, decoded, 0o644); err != nil {
		return "", fmt.Errorf("write artifact tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("commit artifact: %w", err)
	}
	return s.baseURL + "/" + relative, nil
}

// DefaultRootDir resolves the artifact directory, falling back to a temp
// location when value is blank.
func DefaultRootDir(value string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return filepath.Join(os.TempDir(), "robotd-artifacts")
}

func decodePNG(payload string) ([]byte, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, errors.New("payload is required")
	}
	if strings.HasPrefix(trimmed, "data:") {
		parts := strings.SplitN(trimmed, ",", 2)
		if len(parts) != 2 {
			return nil, errors.New("invalid data url payload")
		}
		trimmed = parts[1]
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	if len(decoded) == 0 {
		return nil, errors.New("decoded payload is empty")
	}
	return decoded, nil
}

func safeName(taskID string) string {
	taskID = strings.TrimSpace(taskID)
	taskID = strings.ReplaceAll(taskID, "/", "_")
	taskID = strings.ReplaceAll(taskID, "..", "_")
	if taskID == "" {
		return "task"
	}
	return taskID
}
