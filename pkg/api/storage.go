package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadResult is what the storage endpoints return on success.
type UploadResult struct {
	URL string `json:"url"`
}

// UploadImage uploads a post image and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, bearer, userID string, filename string, file io.Reader) (*UploadResult, error) {
	return c.upload(ctx, "upload_image", "/api/storage/upload/image", bearer, "image", userID, filename, file)
}

// UploadProfilePhoto uploads the user's avatar and returns its public URL.
func (c *Client) UploadProfilePhoto(ctx context.Context, bearer, userID string, filename string, file io.Reader) (*UploadResult, error) {
	return c.upload(ctx, "upload_profile_photo", "/api/storage/upload/"+userID+"/profile", bearer, "profilURL", userID, filename, file)
}

func (c *Client) upload(ctx context.Context, op, path, bearer, field, userID, filename string, file io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := mw.WriteField("userID", userID); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthRejected
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("api: %s: malformed response: %w", op, err)
	}
	if !env.Success {
		return nil, opErr(op, &env)
	}
	var result UploadResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
