package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func avatarPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (a *api) upload(filename string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(a.t, err)
	_, err = part.Write(data)
	require.NoError(a.t, err)
	require.NoError(a.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/avatar", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func TestGetProfile(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/v1/profile", "")
	expectStatus(t, rec, http.StatusOK)

	profile := decode[ProfileResponse](t, rec)
	assert.Equal(t, a.userID.String(), profile.ID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, "EUR", profile.Currency)
	assert.Nil(t, profile.AvatarURL)
}

func TestUpdateProfile(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPut, "/api/v1/profile", `{"name": "  Ana Maria ", "currency": "gbp"}`)
	expectStatus(t, rec, http.StatusOK)

	profile := decode[ProfileResponse](t, rec)
	assert.Equal(t, "Ana Maria", profile.Name)
	assert.Equal(t, "GBP", profile.Currency)

	expectFieldError(t, a.do(http.MethodPut, "/api/v1/profile", `{"name": ""}`), "name")
	expectFieldError(t, a.do(http.MethodPut, "/api/v1/profile", `{"currency": "pounds"}`), "currency")
}

func TestUploadAvatar(t *testing.T) {
	a := newAPI(t)

	rec := a.upload("me.png", avatarPNG(t, 300))
	expectStatus(t, rec, http.StatusOK)

	profile := decode[ProfileResponse](t, rec)
	require.NotNil(t, profile.AvatarURL)
	assert.True(t, strings.HasPrefix(*profile.AvatarURL, "https://storage.test/avatars/"+a.userID.String()+"/"))
	assert.Len(t, a.store.Objects, 1)

	rec = a.do(http.MethodDelete, "/api/v1/profile/avatar", "")
	expectStatus(t, rec, http.StatusOK)
	assert.Nil(t, decode[ProfileResponse](t, rec).AvatarURL)
	assert.Len(t, a.store.Deleted, 1)
}

func TestUploadAvatar_Validation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     func(t *testing.T) []byte
	}{
		{"unsupported extension", "me.gif", func(t *testing.T) []byte { return avatarPNG(t, 100) }},
		{"too small", "me.png", func(t *testing.T) []byte { return avatarPNG(t, 20) }},
		{"not an image", "me.png", func(t *testing.T) []byte { return []byte("definitely not a png") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)
			expectFieldError(t, a.upload(tt.filename, tt.data(t)), "file")
			assert.Empty(t, a.store.Objects)
		})
	}
}

func TestUploadAvatar_MissingFile(t *testing.T) {
	a := newAPI(t)

	expectFieldError(t, a.do(http.MethodPost, "/api/v1/profile/avatar", `{}`), "file")
}
