// Package drive provides file storage operations: uploads for exported
// workbooks, folder listing, and downloads.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	driveBase  = "https://www.googleapis.com/drive/v3"
	uploadBase = "https://www.googleapis.com/upload/drive/v3"
)

// File describes a stored file.
type File struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size,string"`
	Modified time.Time `json:"modifiedTime"`
	WebLink  string    `json:"webViewLink,omitempty"`
}

// IsFolder reports whether the file is a folder.
func (f *File) IsFolder() bool {
	return f.MimeType == "application/vnd.google-apps.folder"
}

type fileListResponse struct {
	Files []File `json:"files"`
}

// Client provides storage operations over an authenticated HTTP client.
type Client struct {
	HTTP *http.Client
}

// NewClient creates a storage client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{HTTP: httpClient}
}

const listFields = "files(id,name,mimeType,size,modifiedTime,webViewLink)"

// ListFolder returns the files in a folder. An empty folderID lists the
// drive root.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]File, error) {
	if folderID == "" {
		folderID = "root"
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	params.Set("orderBy", "folder,name")
	params.Set("fields", listFields)

	req, err := http.NewRequestWithContext(ctx, "GET", driveBase+"/files?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not list folder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list folder failed (%d): %s", resp.StatusCode, string(body))
	}

	var result fileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse folder listing: %w", err)
	}
	return result.Files, nil
}

// Search finds files whose name contains the query string.
func (c *Client) Search(ctx context.Context, query string) ([]File, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("name contains '%s' and trashed = false", query))
	params.Set("fields", listFields)

	req, err := http.NewRequestWithContext(ctx, "GET", driveBase+"/files?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not search files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search failed (%d): %s", resp.StatusCode, string(body))
	}

	var result fileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse search results: %w", err)
	}
	return result.Files, nil
}

// Upload stores a local file, optionally inside a folder. It uses a
// multipart upload so the name and parent land in the same request as the
// content.
func (c *Client) Upload(ctx context.Context, localPath, folderID string) (*File, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", localPath, err)
	}

	metadata := map[string]any{"name": filepath.Base(localPath)}
	if folderID != "" {
		metadata["parents"] = []string{folderID}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := make(textproto.MIMEHeader)
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	part.Write(metaJSON)

	fileHeader := make(textproto.MIMEHeader)
	fileHeader.Set("Content-Type", "application/octet-stream")
	part, err = writer.CreatePart(fileHeader)
	if err != nil {
		return nil, err
	}
	part.Write(data)

	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := uploadBase + "/files?uploadType=multipart&fields=id,name,mimeType,webViewLink"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not upload %s: %w", localPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed (%d): %s", resp.StatusCode, string(body))
	}

	var file File
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("could not parse upload response: %w", err)
	}
	return &file, nil
}

// Download writes a stored file's content to localPath and returns the
// number of bytes written.
func (c *Client) Download(ctx context.Context, fileID, localPath string) (int64, error) {
	endpoint := driveBase + "/files/" + url.PathEscape(fileID) + "?alt=media"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("could not download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("download failed (%d): %s", resp.StatusCode, string(body))
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("could not create output directory: %w", err)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("could not create %s: %w", localPath, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return n, fmt.Errorf("could not write %s: %w", localPath, err)
	}
	return n, nil
}
