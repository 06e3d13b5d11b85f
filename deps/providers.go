package deps

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/labelworks/agents/workflow"
)

// assetHTTPClient downloads signed asset URLs. Signed URLs carry their own
// authorization, so a plain client suffices.
var assetHTTPClient = &http.Client{Timeout: 60 * time.Second}

// Asset returns a scoped provider that downloads the current record's
// underlying asset to a temporary file and resolves to the file path. The
// file is removed when the invocation completes.
//
// The record must have been fetched with a signed URL (the default label-row
// options include one).
func Asset() *Provider {
	return NewScopedProvider("asset", downloadAsset,
		FromContext("record", FieldRecord),
	)
}

func downloadAsset(v Values) (any, func() error, error) {
	record, err := Get[workflow.LabelRow](v, "record")
	if err != nil {
		return nil, nil, err
	}

	url := record.AssetURL()
	if url == "" {
		return nil, nil, fmt.Errorf("record %s has no signed asset URL", record.DataHash())
	}

	resp, err := assetHTTPClient.Get(url)
	if err != nil {
		return nil, nil, fmt.Errorf("downloading asset for %s: %w", record.DataHash(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("downloading asset for %s: unexpected status %s", record.DataHash(), resp.Status)
	}

	f, err := os.CreateTemp("", "labelworks-asset-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating asset temp file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, nil, fmt.Errorf("writing asset temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, nil, fmt.Errorf("closing asset temp file: %w", err)
	}

	path := f.Name()
	release := func() error {
		return os.Remove(path)
	}
	return path, release, nil
}
