package googleDriveApi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/KotFed0t/trade_ledger/config"
	"github.com/KotFed0t/trade_ledger/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	downloadLinkTemplate = "https://drive.google.com/file/d/%s/view"

	// reports uploaded by this process carry the property so cleanup never touches other files
	appPropertyKey   = "source"
	appPropertyValue = "trade_ledger"
)

type GoogleDriveApi struct {
	srv *drive.Service
	ttl time.Duration
}

func New(ctx context.Context, cfg *config.Config) (*GoogleDriveApi, error) {
	srv, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.GoogleDrive.CredentialsFile))
	if err != nil {
		slog.Error("failed on drive.NewService", slog.String("err", err.Error()))
		return nil, err
	}
	return &GoogleDriveApi{srv: srv, ttl: cfg.GoogleDrive.FileTTL}, nil
}

// UploadFile stores content publicly readable and returns its view link.
func (a *GoogleDriveApi) UploadFile(ctx context.Context, content []byte, filename string) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.UploadFile"

	slog.Debug("UploadFile start", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))
	defer func() {
		if err != nil {
			slog.Error("UploadFile failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UploadFile completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("link", downloadLink))
		}
	}()

	fileMeta := &drive.File{
		Name:          filename,
		MimeType:      mime.TypeByExtension(filepath.Ext(filename)),
		AppProperties: map[string]string{appPropertyKey: appPropertyValue},
	}

	uploadedFile, err := a.srv.Files.
		Create(fileMeta).
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	perm := &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}

	_, err = a.srv.Permissions.Create(uploadedFile.Id, perm).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("share %s: %w", uploadedFile.Id, err)
	}

	return fmt.Sprintf(downloadLinkTemplate, uploadedFile.Id), nil
}

// DeleteOldFiles removes uploaded reports older than the configured TTL.
func (a *GoogleDriveApi) DeleteOldFiles(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.DeleteOldFiles"

	slog.Debug("DeleteOldFiles start", slog.String("rqID", rqID), slog.String("op", op))

	query := staleQuery(time.Now().Add(-a.ttl))
	deletedFiles, failedFiles := 0, 0

	err := a.srv.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, createdTime)").
		Context(ctx).
		Pages(ctx, func(list *drive.FileList) error {
			for _, f := range list.Files {
				if err := a.srv.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
					slog.Error(
						"failed delete file",
						slog.String("rqID", rqID),
						slog.String("op", op),
						slog.String("err", err.Error()),
						slog.String("fileID", f.Id),
					)
					failedFiles++
					continue
				}
				deletedFiles++
			}
			return nil
		})
	if err != nil {
		slog.Error("failed on listing files", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info(
		"delete old files done",
		slog.String("rqID", rqID),
		slog.Int("deletedFiles", deletedFiles),
		slog.Int("failedFiles", failedFiles),
	)

	return nil
}

func staleQuery(before time.Time) string {
	return fmt.Sprintf(
		"appProperties has { key='%s' and value='%s' } and createdTime < '%s' and trashed = false",
		appPropertyKey,
		appPropertyValue,
		before.UTC().Format(time.RFC3339),
	)
}
