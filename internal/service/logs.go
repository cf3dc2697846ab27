package service

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

// maxLogBackupSize caps a single client log session payload.
const maxLogBackupSize = 5 << 20

// LogBackup describes one persisted client log session.
type LogBackup struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// LogBackupInput is a client log session submitted for safekeeping.
type LogBackupInput struct {
	SessionID string           `json:"session_id" validate:"omitempty,max=128"`
	Device    string           `json:"device" validate:"omitempty,max=256"`
	Entries   []jsontext.Value `json:"entries" validate:"required,min=1"`
}

// LogService persists client log sessions to disk so they survive app
// reinstalls and can be pulled into bug reports.
type LogService struct {
	backupDir string
	logger    *slog.Logger
}

// NewLogService creates a log service writing under dir.
func NewLogService(dir string, logger *slog.Logger) *LogService {
	return &LogService{backupDir: dir, logger: logger}
}

// Backup writes one log session as a timestamped JSON file and returns its
// metadata.
func (s *LogService) Backup(ctx context.Context, input LogBackupInput) (*LogBackup, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, apperrors.Internal("create log backup dir").WithCause(err)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return nil, apperrors.Internal("encode log session").WithCause(err)
	}
	if len(data) > maxLogBackupSize {
		return nil, apperrors.Validationf("log session exceeds %d bytes", maxLogBackupSize)
	}

	// A timestamp alone collides when sessions arrive in the same instant,
	// so every backup also carries a short random suffix.
	suffix, err := gonanoid.New(8)
	if err != nil {
		return nil, apperrors.Internal("generate backup name").WithCause(err)
	}
	name := fmt.Sprintf("logs-%s-%s.json", time.Now().Format("2006-01-02-150405"), suffix)
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, apperrors.Internal("write log backup").WithCause(err)
	}

	s.logger.Info("client log session backed up",
		"name", name,
		"session_id", input.SessionID,
		"entries", len(input.Entries))

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Internal("stat log backup").WithCause(err)
	}

	return &LogBackup{Name: name, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// List returns all persisted log backups, newest first.
func (s *LogService) List(ctx context.Context) ([]LogBackup, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogBackup{}, nil
		}
		return nil, apperrors.Internal("read log backup dir").WithCause(err)
	}

	backups := make([]LogBackup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, LogBackup{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}
