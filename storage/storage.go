package storage

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultClient is the bucket client used by the handlers. Set by Init from
// the environment; tests build their own Client.
var DefaultClient *Client

// Client talks to the object-storage bucket over its HTTP API.
type Client struct {
	PublicBaseURL string // public read URL for objects
	APIBaseURL    string // authenticated write API
	APIKey        string
	HTTPClient    *http.Client
}

func Init() {
	DefaultClient = &Client{
		PublicBaseURL: os.Getenv("BUCKET_PUBLIC_URL"),
		APIBaseURL:    os.Getenv("BUCKET_API_URL"),
		APIKey:        os.Getenv("BUCKET_API_KEY"),
		HTTPClient:    &http.Client{},
	}
}

// NewObjectKey builds a bucket key for an uploaded file: a UUID plus the
// original file extension, grouped under listings/.
func NewObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "listings/" + uuid.NewString() + ext
}

// ResolveURL returns the public URL for an object key.
func (c *Client) ResolveURL(key string) string {
	return strings.TrimSuffix(c.PublicBaseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}

// CacheBust appends (or replaces) a version query parameter so that clients
// re-fetch an object after it has been replaced under the same key.
func CacheBust(rawURL string, ver int64) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("v", fmt.Sprintf("%d", ver))
	u.RawQuery = q.Encode()
	return u.String()
}

// Upload stores an object in the bucket under the given key.
func (c *Client) Upload(key, contentType string, body io.Reader) error {
	req, err := http.NewRequest("PUT", strings.TrimSuffix(c.APIBaseURL, "/")+"/"+key, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("bucket upload failed with status %d", resp.StatusCode)
	}

	return nil
}

// Delete removes an object from the bucket. Missing objects are not an error.
func (c *Client) Delete(key string) error {
	req, err := http.NewRequest("DELETE", strings.TrimSuffix(c.APIBaseURL, "/")+"/"+key, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("bucket delete failed with status %d", resp.StatusCode)
	}

	return nil
}

// Fetch reads an object from the bucket. The caller owns the response body.
func (c *Client) Fetch(key string) (*http.Response, error) {
	return c.HTTPClient.Get(c.ResolveURL(key))
}
