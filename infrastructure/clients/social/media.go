package social

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"social-publisher/domain/model"
)

// Media is a source file streamed from the content store's media URL.
type Media struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// OpenMedia starts a download of the content's media. The caller closes Body.
// The plain client is used so platform tokens never reach the media host.
func OpenMedia(ctx context.Context, client *http.Client, platform model.Platform, mediaURL string) (*Media, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, model.NewValidationError(platform, []string{fmt.Sprintf("invalid media URL: %v", err)})
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, model.AsPublishError(platform, fmt.Errorf("download media: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, model.NewPlatformError(platform, resp.StatusCode,
			fmt.Sprintf("media download failed with HTTP %d", resp.StatusCode))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Media{Body: resp.Body, Size: resp.ContentLength, ContentType: contentType}, nil
}

// FetchMedia downloads the whole file; used where the upload protocol needs the
// total size up front or re-reads chunks.
func FetchMedia(ctx context.Context, client *http.Client, platform model.Platform, mediaURL string) ([]byte, string, error) {
	m, err := OpenMedia(ctx, client, platform, mediaURL)
	if err != nil {
		return nil, "", err
	}
	defer m.Body.Close()
	data, err := io.ReadAll(m.Body)
	if err != nil {
		return nil, "", model.AsPublishError(platform, fmt.Errorf("read media: %w", err))
	}
	return data, m.ContentType, nil
}

// Chunks splits data into pieces of at most size bytes.
func Chunks(data []byte, size int) [][]byte {
	if size <= 0 || len(data) == 0 {
		return [][]byte{data}
	}
	out := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[start:end])
	}
	return out
}
