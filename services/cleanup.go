package services

import (
	"context"

	"grocery-marketplace-api/metrics"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/storage"

	"go.uber.org/zap"
)

// discardUploads deletes blobs that are no longer referenced by a committed
// document. Cleanup is best-effort: every delete is attempted, failures are
// logged and returned for inspection, and callers never propagate them.
func discardUploads(ctx context.Context, blobs storage.Store, docs []models.Document, log *zap.Logger) []error {
	// Cleanup runs after the request may have been cancelled.
	ctx = context.WithoutCancel(ctx)

	var failures []error
	for _, doc := range docs {
		if err := blobs.Delete(ctx, doc.PublicID); err != nil {
			metrics.RecordBlobCleanupFailure()
			log.Warn("blob cleanup failed",
				zap.String("public_id", doc.PublicID),
				zap.Error(err),
			)
			failures = append(failures, err)
		}
	}
	return failures
}

// uploadAll stores files sequentially in folder. On failure it returns the
// documents uploaded so far together with the error, so the caller can
// compensate.
func uploadAll(ctx context.Context, blobs storage.Store, files []storage.File, folder string) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(files))
	for _, f := range files {
		obj, err := blobs.Upload(ctx, f, folder)
		if err != nil {
			return docs, err
		}
		docs = append(docs, models.Document{PublicID: obj.PublicID, URL: obj.URL})
	}
	return docs, nil
}
