// Package drive stores employee documents and database backups in Google Drive
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// FolderMime is the mime type Drive uses for folders
const FolderMime = "application/vnd.google-apps.folder"

// Repeater retries failed Drive calls
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Client wraps Drive files and permissions API
type Client struct {
	svc  *gdrive.Service
	rptr Repeater
}

// Params for the Drive client
type Params struct {
	CredentialsFile string // service account json
	Repeater        Repeater
	Options         []option.ClientOption // extra client options, endpoint overrides in tests
}

// New makes Drive client authenticated with the service account credentials
func New(ctx context.Context, p Params) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gdrive.DriveScope)}
	if p.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(p.CredentialsFile))
	}
	opts = append(opts, p.Options...)
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to make drive service: %w", err)
	}
	rptr := p.Repeater
	if rptr == nil {
		rptr = repeater.New(&strategy.Once{})
	}
	return &Client{svc: svc, rptr: rptr}, nil
}

// ShareLink returns the public view link of a file
func ShareLink(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view?usp=sharing"
}

// CreateFolder makes a folder under the parent and returns its id, empty parent means root.
// Retries look the folder up first, failed response may hide a created folder.
func (c *Client) CreateFolder(ctx context.Context, name, parent string) (string, error) {
	f := &gdrive.File{Name: name, MimeType: FolderMime}
	if parent != "" {
		f.Parents = []string{parent}
	}
	var id string
	attempt := 0
	err := c.rptr.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			found, err := c.findFolder(ctx, name, parent)
			if err != nil {
				return err
			}
			if found != "" {
				log.Printf("[DEBUG] drive folder %q found on retry, id %s", name, found)
				id = found
				return nil
			}
		}
		res, err := c.svc.Files.Create(f).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
		if err != nil {
			return err
		}
		id = res.Id
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	log.Printf("[DEBUG] drive folder %q created, id %s", name, id)
	return id, nil
}

// FindFolder returns id of the folder with the exact name under the parent, empty string if not found
func (c *Client) FindFolder(ctx context.Context, name, parent string) (string, error) {
	var id string
	err := c.rptr.Do(ctx, func() (err error) {
		id, err = c.findFolder(ctx, name, parent)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to find folder %q: %w", name, err)
	}
	return id, nil
}

func (c *Client) findFolder(ctx context.Context, name, parent string) (string, error) {
	q := fmt.Sprintf("mimeType = '%s' and name = '%s' and trashed = false", FolderMime, escape(name))
	if parent != "" {
		q += fmt.Sprintf(" and '%s' in parents", escape(parent))
	}
	res, err := c.svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

// EnsureFolder returns id of the named folder under the parent, making it if missing
func (c *Client) EnsureFolder(ctx context.Context, name, parent string) (string, error) {
	id, err := c.FindFolder(ctx, name, parent)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.CreateFolder(ctx, name, parent)
}

// Upload stores content as a new file in the parent folder and returns the file id.
// The reader is consumed once, so uploads are not retried.
func (c *Client) Upload(ctx context.Context, name, mimeType string, r io.Reader, parent string) (string, error) {
	f := &gdrive.File{Name: name, MimeType: mimeType}
	if parent != "" {
		f.Parents = []string{parent}
	}
	res, err := c.svc.Files.Create(f).Media(r).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", name, err)
	}
	log.Printf("[INFO] uploaded %q to drive, id %s", name, res.Id)
	return res.Id, nil
}

// Share makes the file readable by anyone with the link
func (c *Client) Share(ctx context.Context, fileID string) error {
	perm := &gdrive.Permission{Type: "anyone", Role: "reader"}
	err := c.rptr.Do(ctx, func() error {
		_, err := c.svc.Permissions.Create(fileID, perm).SupportsAllDrives(true).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to share %s: %w", fileID, err)
	}
	return nil
}

// Delete removes the file
func (c *Client) Delete(ctx context.Context, fileID string) error {
	err := c.rptr.Do(ctx, func() error {
		return c.svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileID, err)
	}
	return nil
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
