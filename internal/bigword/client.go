// Package bigword is a thin HTTP client for the thebigword translation API.
// It handles the requester identity header, JSON marshaling, and maps
// vendor failures onto the connector's error taxonomy.
package bigword

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/translation-connector/internal/model"
)

// API is the vendor operation surface consumed by the sync layer. Client is
// the production implementation; tests substitute fakes.
type API interface {
	CreateProject(ctx context.Context, req ProjectRequest) (string, error)
	UploadFile(ctx context.Context, req FileRequest) (string, error)
	UpdateFile(ctx context.Context, req FileRequest) (string, error)
	ConfirmUploaded(ctx context.Context, projectID string, state model.FileState) (int, error)
	FileInfos(ctx context.Context, state model.FileState) ([]FileInfo, error)
	FileInfo(ctx context.Context, fileID string) (*FileInfo, error)
	DownloadFile(ctx context.Context, state model.FileState, fileID string) ([]byte, error)
	ConfirmDownloaded(ctx context.Context, fileID string, state model.FileState) error
	Languages(ctx context.Context) ([]Language, error)
}

// requestTimeout bounds every vendor call. The vendor is a hard external
// dependency with no circuit breaker, so a missing deadline would hang the
// calling operation indefinitely.
const requestTimeout = 30 * time.Second

// requesterHeader carries the client contact key identity on every request.
const requesterHeader = "TMS-REQUESTER-ID"

// Client talks to one vendor endpoint on behalf of one provider
// configuration.
type Client struct {
	baseURL    string
	providerID string
	contactKey string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a vendor API client. baseURL is the root service URL
// without the version segment; contactKey is the provider's client contact
// key and may be empty, in which case every call fails with an AuthError
// before any network I/O.
func NewClient(baseURL, providerID, contactKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		providerID: providerID,
		contactKey: contactKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// call is the core request primitive. GET params are encoded as a query
// string; all other methods send a JSON body. The raw response body is
// returned so that callers can either decode JSON or keep binary payloads
// untouched.
func (c *Client) call(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body interface{},
) ([]byte, error) {
	if c.contactKey == "" {
		return nil, &AuthError{
			ProviderID: c.providerID,
			Message:    "no client contact key configured",
		}
	}

	endpoint := c.baseURL + "/v" + model.APIVersion + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(requesterHeader, c.contactKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{
			ProviderID: c.providerID,
			Message:    "client contact key rejected by the vendor service",
		}
	}

	if resp.StatusCode != http.StatusOK {
		reason := strings.TrimSpace(string(respBody))
		if reason == "" {
			reason = resp.Status
		}
		return nil, &StatusError{Code: resp.StatusCode, Reason: reason}
	}

	return respBody, nil
}

// callJSON performs a call and decodes the JSON response into result.
func (c *Client) callJSON(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body interface{},
	result interface{},
) error {
	data, err := c.call(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// CreateProject creates a remote project and returns its vendor-assigned id.
func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (string, error) {
	var id json.Number
	if err := c.callJSON(ctx, http.MethodPost, "project", nil, req, &id); err != nil {
		return "", err
	}
	return id.String(), nil
}

// UploadFile creates a file resource at the vendor and returns its id.
func (c *Client) UploadFile(ctx context.Context, req FileRequest) (string, error) {
	var id json.Number
	if err := c.callJSON(ctx, http.MethodPost, "file", nil, req, &id); err != nil {
		return "", err
	}
	return id.String(), nil
}

// UpdateFile updates an existing file resource identified by
// req.FileIDToUpdate and returns the file id.
func (c *Client) UpdateFile(ctx context.Context, req FileRequest) (string, error) {
	var id json.Number
	if err := c.callJSON(ctx, http.MethodPut, "file", nil, req, &id); err != nil {
		return "", err
	}
	return id.String(), nil
}

// ConfirmUploaded tells the vendor that all files of the given state for a
// project are finalized, and returns how many files it accepted.
func (c *Client) ConfirmUploaded(
	ctx context.Context,
	projectID string,
	state model.FileState,
) (int, error) {
	req := confirmRequest{ProjectID: projectID, FileState: state}
	var confirmed int
	if err := c.callJSON(ctx, http.MethodPost, "fileinfos/uploaded", nil, req, &confirmed); err != nil {
		return 0, err
	}
	return confirmed, nil
}

// FileInfos lists all files of the vendor account currently in state.
func (c *Client) FileInfos(ctx context.Context, state model.FileState) ([]FileInfo, error) {
	var infos []FileInfo
	path := "fileinfos/" + string(state)
	if err := c.callJSON(ctx, http.MethodGet, path, nil, nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// FileInfo retrieves the current info of a single file.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	var info FileInfo
	path := "fileinfo/" + fileID
	if err := c.callJSON(ctx, http.MethodGet, path, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadFile retrieves the content of a file in the given state, decoded
// from its base64 wire form.
func (c *Client) DownloadFile(
	ctx context.Context,
	state model.FileState,
	fileID string,
) ([]byte, error) {
	var download fileDownload
	path := "file/" + string(state) + "/" + fileID
	if err := c.callJSON(ctx, http.MethodGet, path, nil, nil, &download); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(download.FileData)
	if err != nil {
		return nil, fmt.Errorf("decoding file %s content: %w", fileID, err)
	}
	return data, nil
}

// ConfirmDownloaded acknowledges that a file has been downloaded.
func (c *Client) ConfirmDownloaded(
	ctx context.Context,
	fileID string,
	state model.FileState,
) error {
	req := downloadedRequest{FileID: fileID, FileState: state}
	return c.callJSON(ctx, http.MethodPost, "fileinfo/downloaded", nil, req, nil)
}

// Languages lists the remote languages supported by the vendor.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := c.callJSON(ctx, http.MethodGet, "languages", nil, nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}
