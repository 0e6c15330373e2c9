package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/storage"
)

type documentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentDocument, error)
	GetByID(ctx context.Context, id string) (*models.StudentDocument, error)
	Create(ctx context.Context, doc *models.StudentDocument) error
	Delete(ctx context.Context, id string) error
}

type studentDocumentLinker interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	AppendDocumentID(ctx context.Context, studentID, documentID string) error
	RemoveDocumentID(ctx context.Context, studentID, documentID string) error
}

// DocumentService stores IEP/504 files on disk and hands out short-lived
// signed download URLs instead of exposing raw paths.
type DocumentService struct {
	repo     documentRepository
	students studentDocumentLinker
	classes  classGetter
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner

	maxFileSize  int64
	allowedMIMEs map[string]struct{}
	logger       *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentRepository, students studentDocumentLinker, classes classGetter, store *storage.LocalStorage, signer *storage.SignedURLSigner, maxFileSize int64, allowedMIMEs []string, logger *zap.Logger) *DocumentService {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[strings.ToLower(m)] = struct{}{}
	}
	return &DocumentService{
		repo:         repo,
		students:     students,
		classes:      classes,
		store:        store,
		signer:       signer,
		maxFileSize:  maxFileSize,
		allowedMIMEs: allowed,
		logger:       logger,
	}
}

// Upload validates and stores one file for the student, linking it onto the
// student record.
func (s *DocumentService) Upload(ctx context.Context, teacherID, studentID, fileName, mimeType string, size int64, r io.Reader) (*models.StudentDocument, error) {
	if fileName == "" || size == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no file uploaded")
	}
	if size > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file too large")
	}
	if len(s.allowedMIMEs) > 0 {
		if _, ok := s.allowedMIMEs[strings.ToLower(mimeType)]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type "+mimeType)
		}
	}
	if err := s.ensureStudentOwned(ctx, teacherID, studentID); err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	relPath := path.Join("documents", studentID, docID+strings.ToLower(filepath.Ext(fileName)))
	if _, err := s.store.SaveStream(relPath, io.LimitReader(r, s.maxFileSize)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.StudentDocument{
		ID:          docID,
		StudentID:   studentID,
		FileName:    fileName,
		FileType:    mimeType,
		StoragePath: relPath,
		UploadedBy:  teacherID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(relPath); delErr != nil {
			s.logger.Warn("orphaned document file after failed insert", zap.String("path", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document")
	}
	if err := s.students.AppendDocumentID(ctx, studentID, docID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link document")
	}
	return doc, nil
}

// List returns the student's documents with signed download URLs.
func (s *DocumentService) List(ctx context.Context, teacherID, studentID string) ([]dto.DocumentDownloadResponse, error) {
	if err := s.ensureStudentOwned(ctx, teacherID, studentID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	out := make([]dto.DocumentDownloadResponse, 0, len(docs))
	for _, doc := range docs {
		token, _, err := s.signer.Generate(doc.ID, doc.StoragePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		out = append(out, dto.DocumentDownloadResponse{
			StudentDocument: doc,
			DownloadURL:     documentDownloadURL(token),
		})
	}
	return out, nil
}

// Resolve validates a signed token and opens the underlying file for
// streaming. The caller owns the returned handle.
func (s *DocumentService) Resolve(ctx context.Context, token string) (*models.StudentDocument, io.ReadCloser, error) {
	docID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc == nil || doc.StoragePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	file, err := s.store.Open(doc.StoragePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, file, nil
}

// Delete removes the file, its metadata row, and the student link.
func (s *DocumentService) Delete(ctx context.Context, teacherID, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	if err := s.ensureStudentOwned(ctx, teacherID, doc.StudentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.students.RemoveDocumentID(ctx, doc.StudentID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink document")
	}
	if err := s.store.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("document file removal failed", zap.String("path", doc.StoragePath), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) ensureStudentOwned(ctx context.Context, teacherID, studentID string) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	class, err := s.classes.GetByID(ctx, student.ClassID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class == nil || class.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

func documentDownloadURL(token string) string {
	return fmt.Sprintf("/api/documents/download?token=%s", token)
}
