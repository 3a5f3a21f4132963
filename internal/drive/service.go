package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const fileFields = "id, name, mimeType, modifiedTime, size"

// Service is a file store over a Google Drive folder tree. Paths are
// resolved folder by folder starting at the configured root.
type Service struct {
	srv    *drive.Service
	rootID string

	mu      sync.Mutex
	folders map[string]string
}

func NewService(ctx context.Context, credentialsJSON, rootFolderID string) (*Service, error) {
	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return NewServiceWithClient(srv, rootFolderID), nil
}

// NewServiceWithClient wraps an existing Drive client.
func NewServiceWithClient(srv *drive.Service, rootFolderID string) *Service {
	if rootFolderID == "" {
		rootFolderID = "root"
	}
	return &Service{
		srv:     srv,
		rootID:  rootFolderID,
		folders: map[string]string{"": rootFolderID},
	}
}

func (s *Service) GetFileContent(ctx context.Context, p string) ([]byte, error) {
	dir, name := split(p)
	folderID, err := s.FindFolderByPath(ctx, dir, false)
	if err != nil {
		return nil, err
	}

	file, err := s.findFile(ctx, folderID, name)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s: %w", p, domain.ErrFileNotFound)
	}

	resp, err := s.srv.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download %s: %w", p, err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// WriteFile uploads data, replacing the content of an existing file with
// the same name and creating missing folders on the way.
func (s *Service) WriteFile(ctx context.Context, p string, data []byte) (domain.FileMetadata, error) {
	dir, name := split(p)
	folderID, err := s.FindFolderByPath(ctx, dir, true)
	if err != nil {
		return domain.FileMetadata{}, err
	}

	existing, err := s.findFile(ctx, folderID, name)
	if err != nil {
		return domain.FileMetadata{}, err
	}

	var file *drive.File
	if existing != nil {
		file, err = s.srv.Files.Update(existing.Id, &drive.File{}).
			Media(bytes.NewReader(data)).
			Fields(fileFields).
			Context(ctx).
			Do()
	} else {
		file, err = s.srv.Files.Create(&drive.File{Name: name, Parents: []string{folderID}}).
			Media(bytes.NewReader(data)).
			Fields(fileFields).
			Context(ctx).
			Do()
	}
	if err != nil {
		return domain.FileMetadata{}, fmt.Errorf("unable to upload %s: %w", p, err)
	}

	return toMetadata(dir, file), nil
}

func (s *Service) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error) {
	dir := strings.Trim(criteria.Path, "/")
	folderID, err := s.FindFolderByPath(ctx, dir, false)
	if errors.Is(err, domain.ErrFileNotFound) {
		return []domain.FileMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []domain.FileMetadata{}
	err = s.srv.Files.List().
		Q(searchQuery(folderID, criteria)).
		Fields("nextPageToken, files(" + fileFields + ")").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, toMetadata(dir, f))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}
	return files, nil
}

// FindFolderByPath resolves a slash path to a folder ID, optionally
// creating missing folders.
func (s *Service) FindFolderByPath(ctx context.Context, p string, create bool) (string, error) {
	p = strings.Trim(p, "/")

	s.mu.Lock()
	if id, ok := s.folders[p]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	currentID := s.rootID
	walked := ""
	for _, folder := range strings.Split(p, "/") {
		if folder == "" {
			continue
		}
		walked = path.Join(walked, folder)

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, escape(folder), domain.MimeFolder)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) > 0 {
			currentID = result.Files[0].Id
		} else if create {
			created, err := s.srv.Files.Create(&drive.File{
				Name:     folder,
				MimeType: domain.MimeFolder,
				Parents:  []string{currentID},
			}).Fields("id").Context(ctx).Do()
			if err != nil {
				return "", fmt.Errorf("error creating folder %s: %w", walked, err)
			}
			currentID = created.Id
		} else {
			return "", fmt.Errorf("folder %s: %w", walked, domain.ErrFileNotFound)
		}

		s.mu.Lock()
		s.folders[walked] = currentID
		s.mu.Unlock()
	}

	return currentID, nil
}

func (s *Service) findFile(ctx context.Context, folderID, name string) (*drive.File, error) {
	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", folderID, escape(name))).
		Fields("files(" + fileFields + ")").
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to look up %s: %w", name, err)
	}
	if len(result.Files) == 0 {
		return nil, nil
	}
	return result.Files[0], nil
}

func searchQuery(folderID string, criteria domain.SearchCriteria) string {
	q := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	if criteria.MimeType != "" {
		q += fmt.Sprintf(" and mimeType='%s'", escape(criteria.MimeType))
	}
	if criteria.NameContains != "" {
		q += fmt.Sprintf(" and name contains '%s'", escape(criteria.NameContains))
	}
	return q
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func split(p string) (dir, name string) {
	p = strings.Trim(p, "/")
	dir, name = path.Split(p)
	return strings.TrimSuffix(dir, "/"), name
}

func toMetadata(dir string, f *drive.File) domain.FileMetadata {
	meta := domain.FileMetadata{
		ID:       f.Id,
		Name:     f.Name,
		Path:     path.Join(dir, f.Name),
		MimeType: f.MimeType,
		Size:     f.Size,
		IsFolder: f.MimeType == domain.MimeFolder,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		meta.ModifiedTime = t.UTC()
	}
	return meta
}
