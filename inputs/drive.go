package inputs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"social-content-pipeline/types"
)

const (
	driveGameplayDir   = "Gameplay"
	driveScreenshotDir = "screenshot"
	driveFolderMime    = "application/vnd.google-apps.folder"
)

// ResolveDrive downloads the contents of a Drive folder into destDir and
// resolves the result like a local asset set. Authentication, listing and
// download failures are fatal; cleanup of destDir belongs to the caller.
func (r *Resolver) ResolveDrive(ctx context.Context, p types.DriveParams, destDir string) (*types.AssetSet, error) {
	credsFile := firstNonEmpty(p.CredentialsFile, r.cfg.Env.DriveCredsJSON)
	folderID := firstNonEmpty(p.FolderID, r.cfg.Env.DriveFolderID)
	if credsFile == "" || folderID == "" {
		return nil, &types.DriveError{Op: "configure", Err: fmt.Errorf("credentials file and folder id are required")}
	}

	svc, err := r.driveService(ctx, credsFile)
	if err != nil {
		return nil, &types.DriveError{Op: "authenticate", Err: err}
	}

	if err := r.downloadFolder(ctx, svc, folderID, destDir); err != nil {
		return nil, err
	}

	return r.ResolveLocal(types.LocalParams{
		GameplayDir:   filepath.Join(destDir, driveGameplayDir),
		ScreenshotDir: filepath.Join(destDir, driveScreenshotDir),
		KeywordFile:   filepath.Join(destDir, "asokeywords.txt"),
		GameFile:      filepath.Join(destDir, "game.txt"),
	})
}

func (r *Resolver) driveService(ctx context.Context, credsFile string) (*drive.Service, error) {
	data, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	return drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
}

// downloadFolder mirrors the expected Drive layout locally: the Gameplay and
// screenshot subfolders plus the two txt files at the folder root.
func (r *Resolver) downloadFolder(ctx context.Context, svc *drive.Service, folderID, destDir string) error {
	items, err := r.listFolder(ctx, svc, folderID)
	if err != nil {
		return &types.DriveError{Op: "list", Err: err}
	}
	r.log.Info().Int("items", len(items)).Msg("listed drive folder")

	for _, item := range items {
		switch {
		case item.MimeType == driveFolderMime && strings.Contains(strings.ToLower(item.Name), "gameplay"):
			if err := r.downloadSubfolder(ctx, svc, item.Id, filepath.Join(destDir, driveGameplayDir)); err != nil {
				return err
			}
		case item.MimeType == driveFolderMime && strings.Contains(strings.ToLower(item.Name), "screenshot"):
			if err := r.downloadSubfolder(ctx, svc, item.Id, filepath.Join(destDir, driveScreenshotDir)); err != nil {
				return err
			}
		case item.MimeType != driveFolderMime:
			if err := r.downloadFile(ctx, svc, item.Id, filepath.Join(destDir, item.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) downloadSubfolder(ctx context.Context, svc *drive.Service, folderID, localDir string) error {
	items, err := r.listFolder(ctx, svc, folderID)
	if err != nil {
		return &types.DriveError{Op: "list", Err: err}
	}
	for _, item := range items {
		if item.MimeType == driveFolderMime {
			continue
		}
		if err := r.downloadFile(ctx, svc, item.Id, filepath.Join(localDir, item.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) listFolder(ctx context.Context, svc *drive.Service, folderID string) ([]*drive.File, error) {
	list, err := svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents", folderID)).
		Fields("files(id, name, mimeType)").
		PageSize(100).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return list.Files, nil
}

func (r *Resolver) downloadFile(ctx context.Context, svc *drive.Service, fileID, localPath string) error {
	resp, err := svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return &types.DriveError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return &types.DriveError{Op: "download", Err: err}
	}
	f, err := os.Create(localPath)
	if err != nil {
		return &types.DriveError{Op: "download", Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &types.DriveError{Op: "download", Err: err}
	}
	r.log.Debug().Str("file", filepath.Base(localPath)).Msg("downloaded drive file")
	return nil
}
