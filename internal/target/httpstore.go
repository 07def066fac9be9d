package target

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
	"strings"

	"github.com/xxxsen/marksync/internal/config"
	appErr "github.com/xxxsen/marksync/internal/pkg/errors"
)

// HTTPStore talks to the document store's REST surface.
type HTTPStore struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPStore(cfg config.TargetConfig, client *http.Client) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		token:    cfg.Token,
		client:   client,
	}
}

func (s *HTTPStore) FindByExternalID(ctx context.Context, collectionID, externalID string) (string, error) {
	query := url.Values{}
	query.Set("attr", "external_id")
	query.Set("value", externalID)
	var out struct {
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
	}
	path := fmt.Sprintf("/collections/%s/documents?%s", url.PathEscape(collectionID), query.Encode())
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if len(out.Documents) == 0 {
		return "", nil
	}
	return out.Documents[0].ID, nil
}

func (s *HTTPStore) GetAttributes(ctx context.Context, docID string) (map[string]string, error) {
	var out struct {
		Attributes map[string]string `json:"attributes"`
	}
	if err := s.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(docID)+"/attributes", nil, &out); err != nil {
		return nil, err
	}
	return out.Attributes, nil
}

func (s *HTTPStore) SetAttributes(ctx context.Context, docID string, attrs map[string]string) error {
	in := map[string]interface{}{"attributes": attrs}
	return s.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(docID)+"/attributes", in, nil)
}

func (s *HTTPStore) CreateDocument(ctx context.Context, collectionID, path, body string) (string, error) {
	in := map[string]interface{}{"path": path, "body": body}
	var out struct {
		ID string `json:"id"`
	}
	reqPath := "/collections/" + url.PathEscape(collectionID) + "/documents"
	if err := s.do(ctx, http.MethodPost, reqPath, in, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create document: store returned no id")
	}
	return out.ID, nil
}

func (s *HTTPStore) DeleteDocument(ctx context.Context, docID string) error {
	return s.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(docID), nil, nil)
}

func (s *HTTPStore) UploadAsset(ctx context.Context, collectionID, dir, name, contentType string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("directory", dir); err != nil {
		return "", err
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	reqURL := s.endpoint + "/collections/" + url.PathEscape(collectionID) + "/assets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp)
	}
	var out struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.Ref == "" {
		return "", fmt.Errorf("upload asset: store returned no ref")
	}
	return out.Ref, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return appErr.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
