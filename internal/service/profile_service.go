package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/repository/storage"
	_ "golang.org/x/image/webp"
)

const (
	MaxAvatarSize  = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	AvatarSize     = 256
	JPEGQuality    = 85
)

var (
	ErrImageTooLarge        = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat        = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrImageTooSmall        = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData     = errors.New("invalid image data")
	ErrStorageNotConfigured = errors.New("avatar storage not configured")
)

// AllowedExtensions lists the accepted avatar file extensions
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Profile is a user together with a fetchable avatar URL
type Profile struct {
	*domain.User
	AvatarURL *string `json:"avatarUrl"`
}

// UpdateProfileInput holds the optional profile fields
type UpdateProfileInput struct {
	Name     *string
	Currency *string
}

// ProfileService handles profile and avatar logic
type ProfileService struct {
	userRepo domain.UserRepository
	storage  storage.ObjectStore
}

// NewProfileService creates a new ProfileService. A nil store disables avatars.
func NewProfileService(userRepo domain.UserRepository, store storage.ObjectStore) *ProfileService {
	return &ProfileService{userRepo: userRepo, storage: store}
}

// AvatarsEnabled indicates whether avatar uploads are supported
func (s *ProfileService) AvatarsEnabled() bool {
	return s.storage != nil
}

// GetProfile retrieves the user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user), nil
}

// UpdateProfile changes name and/or default currency
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, currency := user.Name, user.Currency
	if input.Name != nil {
		if name, err = validateUserName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Currency != nil {
		if currency, err = domain.NormalizeCurrency(*input.Currency, user.Currency); err != nil {
			return nil, err
		}
	}

	updated, err := s.userRepo.UpdateProfile(ctx, userID, name, currency)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, updated), nil
}

// UploadAvatar validates an image, center-crops it to a square JPEG and
// replaces the previous avatar
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, filename string, data io.Reader) (*Profile, error) {
	if !s.AvatarsEnabled() {
		return nil, ErrStorageNotConfigured
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.AvatarPath

	// Read one byte past the limit so oversize files are detected without buffering them fully
	raw, err := io.ReadAll(io.LimitReader(data, MaxAvatarSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	img, err := validateAndDecode(raw, filename)
	if err != nil {
		return nil, err
	}

	avatar := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, avatar, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	objectPath, err := s.storage.Upload(ctx, storage.AvatarObjectPath(userID), &buf, "image/jpeg", int64(buf.Len()))
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateAvatar(ctx, userID, &objectPath)
	if err != nil {
		// Do not leave an orphan object behind
		if delErr := s.storage.Delete(ctx, objectPath); delErr != nil {
			log.Warn().Err(delErr).Str("path", objectPath).Msg("Failed to remove orphan avatar")
		}
		return nil, err
	}

	s.removeObject(ctx, previous)
	return s.profile(ctx, updated), nil
}

// DeleteAvatar clears the avatar and removes the stored object
func (s *ProfileService) DeleteAvatar(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.AvatarPath
	if previous == nil {
		return s.profile(ctx, user), nil
	}

	updated, err := s.userRepo.UpdateAvatar(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	s.removeObject(ctx, previous)
	return s.profile(ctx, updated), nil
}

func (s *ProfileService) removeObject(ctx context.Context, objectPath *string) {
	if objectPath == nil || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, *objectPath); err != nil {
		log.Warn().Err(err).Str("path", *objectPath).Msg("Failed to delete previous avatar")
	}
}

// profile resolves the avatar URL. An unresolvable URL is logged and omitted.
func (s *ProfileService) profile(ctx context.Context, user *domain.User) *Profile {
	p := &Profile{User: user}
	if user.AvatarPath == nil || s.storage == nil {
		return p
	}
	url, err := s.storage.URL(ctx, *user.AvatarPath)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to resolve avatar URL")
		return p
	}
	p.AvatarURL = &url
	return p
}

// validateAndDecode checks size, extension and dimensions and returns the decoded image
func validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxAvatarSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtensions[ext] {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	return img, nil
}
