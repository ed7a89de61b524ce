package service

import (
	"context"
	"errors"
	"fmt"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/store"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("unsupported content type")
)

type FilesService struct {
	stores *store.Stores
}

func NewFilesService(stores *store.Stores) *FilesService {
	return &FilesService{stores: stores}
}

func (s *FilesService) UploadDocument(ctx context.Context, ownerID int64, filename, contentType string, payload []byte) (*model.Document, error) {
	if _, ok := model.AllowedDocumentMIMETypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if int64(len(payload)) > model.MaxDocumentSizeBytes {
		return nil, ErrFileTooLarge
	}

	doc := &model.Document{
		OwnerID: ownerID, Filename: filename, ContentType: contentType,
		SizeBytes: int64(len(payload)), Payload: payload,
	}
	if err := s.stores.Documents().Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FilesService) UploadImage(ctx context.Context, ownerID int64, filename, contentType string, payload []byte) (*model.Image, error) {
	if _, ok := model.AllowedImageMIMETypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if int64(len(payload)) > model.MaxImageSizeBytes {
		return nil, ErrFileTooLarge
	}

	img := &model.Image{
		OwnerID: ownerID, Filename: filename, ContentType: contentType,
		SizeBytes: int64(len(payload)), Payload: payload,
	}
	if err := s.stores.Images().Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *FilesService) ListUnboundDocuments(ctx context.Context, ownerID int64) ([]model.Document, error) {
	return s.stores.Documents().ListUnboundByOwner(ctx, ownerID)
}

// ListDocumentsForCourse backs GET /files/documents?course_id=...; the
// requester must own the course.
func (s *FilesService) ListDocumentsForCourse(ctx context.Context, courseID, requestingUserID int64) ([]model.Document, error) {
	course, err := s.stores.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != requestingUserID {
		return nil, ErrForbidden
	}
	return s.stores.Documents().ListByCourse(ctx, courseID)
}

func (s *FilesService) GetDocument(ctx context.Context, id, requestingUserID int64) (*model.Document, error) {
	doc, err := s.stores.Documents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != requestingUserID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *FilesService) GetImage(ctx context.Context, id, requestingUserID int64) (*model.Image, error) {
	img, err := s.stores.Images().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.OwnerID != requestingUserID {
		return nil, ErrForbidden
	}
	return img, nil
}

func (s *FilesService) DeleteDocument(ctx context.Context, id, requestingUserID int64) error {
	if _, err := s.GetDocument(ctx, id, requestingUserID); err != nil {
		return err
	}
	return s.stores.Documents().Delete(ctx, id)
}

func (s *FilesService) DeleteImage(ctx context.Context, id, requestingUserID int64) error {
	if _, err := s.GetImage(ctx, id, requestingUserID); err != nil {
		return err
	}
	return s.stores.Images().Delete(ctx, id)
}
