// Command upload pushes a local media file into the platform: it obtains
// an upload credential, streams the file to the object store, and
// optionally registers the video's metadata afterwards.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/uploader"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		filePath       = flag.String("file", "", "path of the media file to upload (required)")
		kind           = flag.String("kind", "video", "media kind: video or image")
		token          = flag.String("token", os.Getenv("REELVAULT_TOKEN"), "identity token")
		title          = flag.String("title", "", "video title; registers metadata when set")
		description    = flag.String("description", "", "video description")
		thumbnailURL   = flag.String("thumbnail", "", "thumbnail URL for metadata registration")
		transformation = flag.String("transformation", "w-1280,h-720", "delivery transformation")
	)
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}
	if *token == "" {
		return fmt.Errorf("identity token required (-token or REELVAULT_TOKEN)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(*filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	u := uploader.New(uploader.Config{
		BaseURL: cfg.Upload.BaseURL,
		Token:   *token,
		// Streaming uploads run longer than a request/response call.
		HTTPClient: &http.Client{Timeout: 30 * time.Minute},
		OnProgress: func(percent float64) {
			fmt.Fprintf(os.Stderr, "\ruploading %s: %5.1f%%", filepath.Base(*filePath), percent)
		},
	})

	result, err := u.Upload(ctx, uploader.Kind(*kind), uploader.File{
		Name:        filepath.Base(*filePath),
		Size:        info.Size(),
		ContentType: contentType,
		Content:     f,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Printf("uploaded: %s\n", result.URL)

	if *title == "" {
		return nil
	}

	record, err := registerVideo(ctx, cfg.Upload.BaseURL, *token, map[string]string{
		"title":          *title,
		"description":    *description,
		"videoUrl":       result.URL,
		"thumbnailUrl":   *thumbnailURL,
		"transformation": *transformation,
	})
	if err != nil {
		return fmt.Errorf("metadata registration failed: %w", err)
	}
	fmt.Printf("registered: %s\n", record)
	return nil
}

func registerVideo(ctx context.Context, baseURL, token string, body map[string]string) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/videos", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var record struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", err
	}
	return record.ID, nil
}
