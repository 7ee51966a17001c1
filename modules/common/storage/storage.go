package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG 디코더 등록
	_ "image/png"  // PNG 디코더 등록
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"carscene-server/modules/common/config"
	_ "github.com/kolesa-team/go-webp/decoder" // WebP 디코더 등록
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

type Client struct {
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// PublicURL - 저장된 파일 경로를 공개 URL로 변환
func (c *Client) PublicURL(filePath string) string {
	cfg := config.GetConfig()
	return cfg.SupabaseStorageBaseURL + filePath
}

// DownloadImage - 프로바이더가 준 결과 URL에서 이미지 다운로드
func (c *Client) DownloadImage(ctx context.Context, srcURL string) ([]byte, error) {
	log.Printf("📥 Downloading image from: %s", srcURL)

	req, err := http.NewRequestWithContext(ctx, "GET", srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	log.Printf("✅ Image downloaded successfully: %d bytes", len(imageData))
	return imageData, nil
}

// StoreFinalImage - 합성 결과 URL을 받아 WebP로 변환 후 Storage에 영구 저장
// 반환값은 Storage 내 파일 경로 (final_image_path로 기록됨)
func (c *Client) StoreFinalImage(ctx context.Context, srcURL string, userID string) (string, error) {
	imageData, err := c.DownloadImage(ctx, srcURL)
	if err != nil {
		return "", err
	}

	// WebP 변환 (quality: 90)
	webpData, err := ConvertToWebP(imageData, 90.0)
	if err != nil {
		return "", fmt.Errorf("failed to convert image to WebP: %w", err)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	randomID := rand.Intn(999999)
	fileName := fmt.Sprintf("composite_%d_%d.webp", timestamp, randomID)
	filePath := fmt.Sprintf("generated-scenes/user-%s/%s", userID, fileName)

	if err := c.upload(ctx, filePath, webpData, "image/webp"); err != nil {
		return "", err
	}

	log.Printf("✅ Final image stored: %s (%d bytes)", filePath, len(webpData))
	return filePath, nil
}

// StoreVideoClip - 비디오 결과 URL을 받아 Storage에 저장 (변환 없음)
func (c *Client) StoreVideoClip(ctx context.Context, srcURL string, userID string) (string, error) {
	videoData, err := c.DownloadImage(ctx, srcURL)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	randomID := rand.Intn(999999)
	fileName := fmt.Sprintf("clip_%d_%d.mp4", timestamp, randomID)
	filePath := fmt.Sprintf("generated-clips/user-%s/%s", userID, fileName)

	if err := c.upload(ctx, filePath, videoData, "video/mp4"); err != nil {
		return "", err
	}

	log.Printf("✅ Video clip stored: %s (%d bytes)", filePath, len(videoData))
	return filePath, nil
}

// upload - Supabase Storage REST API로 업로드
func (c *Client) upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	cfg := config.GetConfig()

	log.Printf("📤 Uploading to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/attachments/%s", cfg.SupabaseURL, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// ConvertToWebP - 이미지 바이너리를 WebP로 변환 (PNG/JPEG/WebP 자동 감지)
func ConvertToWebP(imageData []byte, quality float32) ([]byte, error) {
	log.Printf("🔄 Converting image to WebP (quality: %.1f)", quality)

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()

	log.Printf("✅ Image converted to WebP: %s %d bytes → %d bytes",
		format, len(imageData), len(webpData))

	return webpData, nil
}
