package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"civic311-be/metrics"
	"civic311-be/models"
	"civic311-be/policy"
	"civic311-be/scanner"

	"go.uber.org/zap"
)

const rescanBatch = 50

// FileStore persists attachment bytes.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (models.StoredFile, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

type attachmentStore interface {
	RequestStore
	AttachmentStore
}

// AttachmentService stores uploads and tracks their scan state. A scanner
// outage leaves attachments pending; the rescan loop resolves them later.
type AttachmentService struct {
	store   attachmentStore
	files   FileStore
	scanner scanner.Scanner
	policy  *policy.Policy
	logger  *zap.Logger
	now     func() time.Time
}

func NewAttachmentService(store attachmentStore, files FileStore, sc scanner.Scanner, pol *policy.Policy, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		store:   store,
		files:   files,
		scanner: sc,
		policy:  pol,
		logger:  logger.Named("attachments"),
		now:     utcNow,
	}
}

func (s *AttachmentService) Upload(ctx context.Context, actor models.Principal, requestID int64, originalName string, description *string, r io.Reader) (*models.Attachment, error) {
	req, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeRequestAccess(actor, req); err != nil {
		return nil, err
	}
	if err := s.policy.Require(actor, policy.ObjAttachment, policy.ActCreate); err != nil {
		return nil, err
	}

	originalName = filepath.Base(filepath.Clean("/" + originalName))
	stored, err := s.files.Save(ctx, originalName, r)
	if err != nil {
		return nil, err
	}

	state, result := s.scan(ctx, stored.Name)
	a := &models.Attachment{
		RequestID:        requestID,
		UploadedByID:     actor.ID,
		Filename:         stored.Name,
		OriginalFilename: originalName,
		FileSize:         stored.Size,
		MimeType:         stored.MimeType,
		Description:      description,
		ScanState:        state,
		ScanResult:       result,
		CreatedAt:        s.now(),
	}
	if err := s.store.InsertAttachment(ctx, a); err != nil {
		if rmErr := s.files.Remove(stored.Name); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", stored.Name), zap.Error(rmErr))
		}
		return nil, err
	}
	return a, nil
}

func (s *AttachmentService) List(ctx context.Context, actor models.Principal, requestID int64) ([]models.Attachment, error) {
	req, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeRequestAccess(actor, req); err != nil {
		return nil, err
	}
	return s.store.ListAttachments(ctx, requestID)
}

// RescanPending retries attachments still pending and returns how many
// reached a verdict.
func (s *AttachmentService) RescanPending(ctx context.Context) (int, error) {
	pending, err := s.store.ListPendingAttachments(ctx, rescanBatch)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, a := range pending {
		if ctx.Err() != nil {
			break
		}
		state, result := s.scan(ctx, a.Filename)
		if state == models.ScanPending {
			continue
		}
		ok, err := s.store.ResolveScan(ctx, a.ID, state, result)
		if err != nil {
			s.logger.Error("failed to record scan verdict", zap.Int64("attachment_id", a.ID), zap.Error(err))
			continue
		}
		if ok {
			resolved++
		}
	}
	return resolved, nil
}

// RunRescanner calls RescanPending every interval until ctx is done.
func (s *AttachmentService) RunRescanner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.RescanPending(ctx)
			if err != nil {
				s.logger.Error("rescan failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("rescan resolved attachments", zap.Int("count", n))
			}
		}
	}
}

// scan never fails: any problem maps to pending with a reason.
func (s *AttachmentService) scan(ctx context.Context, name string) (models.ScanState, string) {
	f, err := s.files.Open(name)
	if err != nil {
		s.logger.Warn("cannot open attachment for scanning", zap.String("file", name), zap.Error(err))
		return models.ScanPending, "Scan error: file unavailable"
	}
	defer f.Close()

	start := time.Now()
	verdict, err := s.scanner.Scan(ctx, f)
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, scanner.ErrUnavailable) {
			metrics.AttachmentScans.WithLabelValues(string(models.ScanPending)).Inc()
			return models.ScanPending, "Scanner unavailable"
		}
		s.logger.Warn("scan failed", zap.String("file", name), zap.Error(err))
		metrics.AttachmentScans.WithLabelValues(string(models.ScanPending)).Inc()
		return models.ScanPending, fmt.Sprintf("Scan error: %v", err)
	}
	metrics.AttachmentScans.WithLabelValues(string(verdict.State)).Inc()
	return verdict.State, verdict.Detail
}
