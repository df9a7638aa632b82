// Package upload sends form images to the third-party image host.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("ticketbari.upload")

const DefaultURL = "https://api.imgbb.com/1/upload"

// MaxSize caps an uploaded image.
const MaxSize = 8 << 20

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func New(endpoint, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type response struct {
	Success bool `json:"success"`
	Data    struct {
		DisplayURL string `json:"display_url"`
		URL        string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image as multipart form data and returns its display URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c.apiKey == "" {
		return "", errors.NotSupportedf("image upload without api key")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", errors.Trace(err)
	}
	n, err := io.Copy(part, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", errors.Annotate(err, "reading image")
	}
	if n > MaxSize {
		return "", errors.NotValidf("image larger than %d bytes", MaxSize)
	}
	if err := mw.Close(); err != nil {
		return "", errors.Trace(err)
	}

	target := c.endpoint + "?" + url.Values{"key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return "", errors.Trace(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Annotate(err, "posting image")
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Annotatef(err, "decoding upload response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 || !out.Success {
		return "", errors.Errorf("image host rejected upload: status %d %s", resp.StatusCode, out.Error.Message)
	}
	link := out.Data.DisplayURL
	if link == "" {
		link = out.Data.URL
	}
	logger.Debugf("uploaded %s (%d bytes)", filename, n)
	return link, nil
}
