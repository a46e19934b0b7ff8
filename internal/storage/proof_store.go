package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProofStore keeps payment proof uploads on the local filesystem, laid out as
// {recordedBy}/{requisitionID}/{timestamp}_{filename}.
type ProofStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewProofStore creates a proof store rooted at baseDir.
func NewProofStore(baseDir string, logger *zap.Logger) *ProofStore {
	return &ProofStore{baseDir: baseDir, logger: logger}
}

// Save writes a proof file and returns its relative path for the payment row.
func (s *ProofStore) Save(ctx context.Context, recordedBy, requisitionID, filename string, content []byte) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid proof filename: %q", filename)
	}

	relPath := filepath.Join(recordedBy, requisitionID,
		fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	fullPath := filepath.Join(s.baseDir, relPath)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create proof directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write proof file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Proof saved",
		zap.String("path", relPath),
		zap.Int("size", len(content)))
	return relPath, nil
}

// Read returns the contents of a stored proof.
func (s *ProofStore) Read(ctx context.Context, relPath string) ([]byte, error) {
	fullPath := filepath.Join(s.baseDir, relPath)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read proof file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Exists reports whether a proof is present at the relative path.
func (s *ProofStore) Exists(ctx context.Context, relPath string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, relPath))
	return err == nil
}

// validatePath rejects any path that resolves outside baseDir.
func (s *ProofStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}
