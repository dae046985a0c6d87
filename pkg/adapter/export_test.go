package adapter

import (
	"context"
	"io"
	"net/http"
)

func DownloadForTest(ctx context.Context, client *http.Client, uri, apiKey string) (io.ReadCloser, error) {
	return download(ctx, client, uri, apiKey)
}
