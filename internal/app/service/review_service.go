package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/internal/verification"
	"github.com/carelink/carelink-backend/pkg/logger"
)

var (
	ErrVerificationNotFound = errors.New("verification record not found")
	ErrInvalidReviewItem    = errors.New("invalid verification item")
)

// ReviewSummary is one row of the reviewer dashboard
type ReviewSummary struct {
	SubjectID    string                   `json:"subject_id"`
	Role         model.Role               `json:"role,omitempty"`
	StaffType    model.StaffType          `json:"staff_type,omitempty"`
	Step         int                      `json:"step"`
	Progress     int                      `json:"progress"`
	IsCompleted  bool                     `json:"is_completed"`
	PendingItems []model.VerificationItem `json:"pending_items"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// ReviewService is the administrative side of the verification flow.
// Approvals and rejections go through the same transactional
// transition as the wizard, recomputing progress with the same
// formula, so the two writers can never disagree about it.
type ReviewService interface {
	List(ctx context.Context) ([]ReviewSummary, error)
	Get(ctx context.Context, subjectID string) (*model.VerificationRecord, error)
	Review(ctx context.Context, subjectID string, item model.VerificationItem, approve bool, reviewerID string) (*model.VerificationRecord, error)
	PendingOlderThan(ctx context.Context, age time.Duration) ([]ReviewSummary, error)
}

type reviewService struct {
	store *docstore.Store
}

func NewReviewService(store *docstore.Store) ReviewService {
	return &reviewService{store: store}
}

func (s *reviewService) List(ctx context.Context) ([]ReviewSummary, error) {
	docs, err := s.store.List(ctx, model.VerificationsCollection)
	if err != nil {
		return nil, err
	}

	summaries := make([]ReviewSummary, 0, len(docs))
	for i := range docs {
		summary, err := summarize(&docs[i])
		if err != nil {
			logger.Warn("Skipping undecodable verification record", map[string]interface{}{
				"subject": docs[i].Key,
			})
			continue
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *reviewService) Get(ctx context.Context, subjectID string) (*model.VerificationRecord, error) {
	doc, err := s.store.Get(ctx, model.VerificationsCollection, subjectID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(doc.Data)
}

func (s *reviewService) Review(ctx context.Context, subjectID string, item model.VerificationItem, approve bool, reviewerID string) (*model.VerificationRecord, error) {
	if !item.Valid() {
		return nil, ErrInvalidReviewItem
	}

	now := time.Now()
	doc, err := s.store.RunTransaction(ctx, model.VerificationsCollection, subjectID, func(current *docstore.Document) (json.RawMessage, error) {
		if current == nil {
			return nil, ErrVerificationNotFound
		}
		record, err := decodeRecord(current.Data)
		if err != nil {
			return nil, err
		}

		status := model.StatusRejected
		if approve {
			status = model.StatusVerified
		}
		record.Verifications[item] = approve
		record.VerificationStatuses[item] = model.VerificationStatusItem{
			Status:     status,
			VerifiedAt: &now,
			VerifiedBy: reviewerID,
		}
		record.Progress = verification.ComputeProgress(record)
		if record.IsCompleted {
			record.Progress = 100
		}
		return json.Marshal(record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Verification item reviewed", map[string]interface{}{
		"subject":  subjectID,
		"item":     string(item),
		"approved": approve,
		"reviewer": reviewerID,
	})
	return decodeRecord(doc.Data)
}

// PendingOlderThan lists incomplete records with evidence that has sat
// unreviewed longer than age. Used by the reminder scheduler.
func (s *reviewService) PendingOlderThan(ctx context.Context, age time.Duration) ([]ReviewSummary, error) {
	docs, err := s.store.List(ctx, model.VerificationsCollection)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-age)

	var stale []ReviewSummary
	for i := range docs {
		summary, err := summarize(&docs[i])
		if err != nil {
			continue
		}
		if summary.IsCompleted || len(summary.PendingItems) == 0 {
			continue
		}
		if docs[i].UpdatedAt.Before(cutoff) {
			stale = append(stale, *summary)
		}
	}
	return stale, nil
}

func summarize(doc *docstore.Document) (*ReviewSummary, error) {
	record, err := decodeRecord(doc.Data)
	if err != nil {
		return nil, err
	}

	var pending []model.VerificationItem
	for _, item := range model.VerificationItems {
		if status, ok := record.VerificationStatuses[item]; ok && status.Status == model.StatusPending {
			pending = append(pending, item)
		}
	}

	return &ReviewSummary{
		SubjectID:    doc.Key,
		Role:         record.Role,
		StaffType:    record.StaffType,
		Step:         record.Step,
		Progress:     record.Progress,
		IsCompleted:  record.IsCompleted,
		PendingItems: pending,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func decodeRecord(data json.RawMessage) (*model.VerificationRecord, error) {
	record := model.NewVerificationRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, err
	}
	record.Normalize()
	return record, nil
}
