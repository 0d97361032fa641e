package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

var supportedVideoFormats = []string{".mp4", ".mkv", ".avi", ".mov"}

const (
	scanRetentionPeriod = 1 * time.Hour
	cleanupInterval     = 15 * time.Minute
)

// ScanStatus represents the current state of a library scan
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusCancelled ScanStatus = "cancelled"
)

var (
	ErrScanNotFound       = errors.New("scan not found")
	ErrScanAlreadyRunning = errors.New("a scan is already running")
	ErrInvalidDirectory   = errors.New("invalid directory path")
)

// ScanProgress tracks the progress of a library scan
type ScanProgress struct {
	ScanID         string     `json:"scan_id"`
	Status         ScanStatus `json:"status"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	SuccessCount   int        `json:"success_count"`
	FailedCount    int        `json:"failed_count"`
	CurrentFile    string     `json:"current_file"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Errors         []string   `json:"errors,omitempty"`
	mu             sync.RWMutex
	cancelFunc     context.CancelFunc
}

// Scanner ingests media files into the library asynchronously
type Scanner struct {
	repos       *db.Repositories
	activeScans map[string]*ScanProgress
	mu          sync.RWMutex
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewScanner creates a new library scanner instance
func NewScanner(repos *db.Repositories) *Scanner {
	s := &Scanner{
		repos:       repos,
		activeScans: make(map[string]*ScanProgress),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go s.runCleanupLoop()
	return s
}

// StartScan begins an asynchronous scan of the given directory and
// returns a scan ID for progress polling. Only one scan may run at a
// time.
func (s *Scanner) StartScan(ctx context.Context, dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: directory does not exist", ErrInvalidDirectory)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: path is not a directory", ErrInvalidDirectory)
	}

	// Lock across the running-check and the insert so two concurrent
	// StartScan calls cannot both pass the check
	s.mu.Lock()
	for _, scan := range s.activeScans {
		scan.mu.RLock()
		running := scan.Status == ScanStatusRunning
		scan.mu.RUnlock()
		if running {
			s.mu.Unlock()
			return "", ErrScanAlreadyRunning
		}
	}

	scanID := uuid.New().String()
	scanCtx, cancel := context.WithCancel(ctx)

	progress := &ScanProgress{
		ScanID:     scanID,
		Status:     ScanStatusRunning,
		StartTime:  time.Now().UTC(),
		Errors:     []string{},
		cancelFunc: cancel,
	}
	s.activeScans[scanID] = progress
	s.mu.Unlock()

	go s.performScan(scanCtx, scanID, dirPath)

	logger.Log.Info().
		Str("scan_id", scanID).
		Str("directory", dirPath).
		Msg("Library scan started")

	return scanID, nil
}

// GetScanProgress retrieves the current progress of a scan
func (s *Scanner) GetScanProgress(scanID string) (*ScanProgress, error) {
	s.mu.RLock()
	progress, exists := s.activeScans[scanID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrScanNotFound
	}

	progress.mu.RLock()
	defer progress.mu.RUnlock()

	return &ScanProgress{
		ScanID:         progress.ScanID,
		Status:         progress.Status,
		TotalFiles:     progress.TotalFiles,
		ProcessedFiles: progress.ProcessedFiles,
		SuccessCount:   progress.SuccessCount,
		FailedCount:    progress.FailedCount,
		CurrentFile:    progress.CurrentFile,
		StartTime:      progress.StartTime,
		EndTime:        progress.EndTime,
		Errors:         append([]string{}, progress.Errors...),
	}, nil
}

// CancelScan cancels a running scan
func (s *Scanner) CancelScan(scanID string) error {
	s.mu.RLock()
	progress, exists := s.activeScans[scanID]
	s.mu.RUnlock()

	if !exists {
		return ErrScanNotFound
	}

	progress.mu.Lock()
	defer progress.mu.Unlock()
	if progress.Status != ScanStatusRunning {
		return fmt.Errorf("scan is not running (status: %s)", progress.Status)
	}
	if progress.cancelFunc != nil {
		progress.cancelFunc()
	}

	logger.Log.Info().
		Str("scan_id", scanID).
		Msg("Library scan cancellation requested")

	return nil
}

func (s *Scanner) performScan(ctx context.Context, scanID, dirPath string) {
	s.mu.RLock()
	progress := s.activeScans[scanID]
	s.mu.RUnlock()

	videoFiles := s.findVideoFiles(ctx, dirPath, progress)

	if ctx.Err() != nil {
		s.finalizeScan(progress, ScanStatusCancelled)
		return
	}

	progress.mu.Lock()
	progress.TotalFiles = len(videoFiles)
	progress.mu.Unlock()

	logger.Log.Info().
		Str("scan_id", scanID).
		Int("total_files", len(videoFiles)).
		Msg("Found video files to ingest")

	for _, filePath := range videoFiles {
		select {
		case <-ctx.Done():
			s.finalizeScan(progress, ScanStatusCancelled)
			return
		default:
		}
		s.ingestFile(ctx, filePath, progress)
	}

	s.finalizeScan(progress, ScanStatusCompleted)
}

func (s *Scanner) findVideoFiles(ctx context.Context, dirPath string, progress *ScanProgress) []string {
	var videoFiles []string

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			logger.Log.Warn().
				Str("path", path).
				Err(err).
				Msg("Error during directory walk")
			progress.mu.Lock()
			progress.Errors = append(progress.Errors, fmt.Sprintf("error accessing path %s: %v", path, err))
			progress.mu.Unlock()
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if isVideoFile(path) {
			videoFiles = append(videoFiles, path)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error().Err(err).Msg("Directory walk failed")
		progress.mu.Lock()
		progress.Errors = append(progress.Errors, fmt.Sprintf("directory walk failed: %v", err))
		progress.mu.Unlock()
	}

	return videoFiles
}

// ingestFile probes a single video file and upserts it into the library
func (s *Scanner) ingestFile(ctx context.Context, filePath string, progress *ScanProgress) {
	progress.mu.Lock()
	progress.CurrentFile = filePath
	progress.mu.Unlock()

	if err := checkReadable(filePath); err != nil {
		s.recordFileError(progress, filePath, err)
		return
	}

	metadata, err := ProbeFile(ctx, filePath)
	if err != nil {
		s.recordFileError(progress, filePath, fmt.Errorf("ffprobe failed: %w", err))
		return
	}

	parsed := ParsePath(filePath)

	item := models.NewMediaItem(filePath, parsed.Title, metadata.Duration)
	item.ShowName = parsed.ShowName
	item.Season = parsed.Season
	item.Episode = parsed.Episode
	item.ReleasedAt = parsed.ReleasedAt
	item.ChapterMarks = metadata.ChapterMarks
	item.VideoCodec = &metadata.VideoCodec
	item.AudioCodec = &metadata.AudioCodec
	item.Resolution = &metadata.Resolution
	item.FileSize = &metadata.FileSize

	if err := s.upsertItem(ctx, item); err != nil {
		s.recordFileError(progress, filePath, fmt.Errorf("database operation failed: %w", err))
		return
	}

	progress.mu.Lock()
	progress.SuccessCount++
	progress.ProcessedFiles++
	progress.mu.Unlock()

	logger.Log.Debug().
		Str("file", filePath).
		Str("title", item.Title).
		Msg("Ingested video file")
}

// upsertItem inserts optimistically, falling back to an update when the
// file path already exists
func (s *Scanner) upsertItem(ctx context.Context, item *models.MediaItem) error {
	err := s.repos.MediaItems.Create(ctx, item)
	if err == nil {
		return nil
	}
	if !db.IsDuplicate(err) {
		return err
	}

	existing, err := s.repos.MediaItems.GetByPath(ctx, item.FilePath)
	if err != nil {
		return fmt.Errorf("failed to fetch existing item after duplicate: %w", err)
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	return s.repos.MediaItems.Update(ctx, item)
}

func (s *Scanner) recordFileError(progress *ScanProgress, filePath string, err error) {
	logger.Log.Warn().
		Str("file", filePath).
		Err(err).
		Msg("Failed to ingest video file")

	progress.mu.Lock()
	progress.FailedCount++
	progress.ProcessedFiles++
	progress.Errors = append(progress.Errors, fmt.Sprintf("%s: %v", filePath, err))
	progress.mu.Unlock()
}

func (s *Scanner) finalizeScan(progress *ScanProgress, status ScanStatus) {
	endTime := time.Now().UTC()

	progress.mu.Lock()
	progress.Status = status
	progress.EndTime = &endTime
	progress.CurrentFile = ""
	progress.mu.Unlock()

	logger.Log.Info().
		Str("scan_id", progress.ScanID).
		Str("status", string(status)).
		Int("total_files", progress.TotalFiles).
		Int("success_count", progress.SuccessCount).
		Int("failed_count", progress.FailedCount).
		Dur("duration", endTime.Sub(progress.StartTime)).
		Msg("Library scan finished")
}

// checkReadable verifies a path is a regular file we can open
func checkReadable(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file not readable: %w", err)
	}
	if info.IsDir() {
		return errors.New("path is a directory, not a file")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	return file.Close()
}

func isVideoFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supported := range supportedVideoFormats {
		if ext == supported {
			return true
		}
	}
	return false
}

// Stop shuts down the scanner's cleanup goroutine
func (s *Scanner) Stop() {
	close(s.stopCleanup)
	<-s.cleanupDone
}

func (s *Scanner) runCleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.CleanupOldScans(scanRetentionPeriod)
		}
	}
}

// CleanupOldScans drops finished scans older than the given duration
func (s *Scanner) CleanupOldScans(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for scanID, progress := range s.activeScans {
		progress.mu.RLock()
		status := progress.Status
		endTime := progress.EndTime
		progress.mu.RUnlock()

		if status == ScanStatusRunning || endTime == nil {
			continue
		}
		if endTime.Before(cutoff) {
			delete(s.activeScans, scanID)
			removed++
		}
	}

	if removed > 0 {
		logger.Log.Debug().
			Int("removed_count", removed).
			Dur("older_than", olderThan).
			Msg("Cleaned up old scans")
	}
}
