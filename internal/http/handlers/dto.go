package handlers

import (
	"time"

	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/service"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// Входные/выходные модели REST. Хэш пароля в ответы не попадает никогда.

type preferencesDTO struct {
	Genders []string `json:"genders,omitempty"`
	MinAge  int      `json:"minAge,omitempty"`
	MaxAge  int      `json:"maxAge,omitempty"`
}

func (p *preferencesDTO) toInput() *service.PreferencesInput {
	if p == nil {
		return nil
	}
	return &service.PreferencesInput{Genders: p.Genders, MinAge: p.MinAge, MaxAge: p.MaxAge}
}

type registerRequest struct {
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Age         int             `json:"age"`
	Gender      string          `json:"gender"`
	Location    string          `json:"location"`
	Interests   []string        `json:"interests"`
	Bio         string          `json:"bio"`
	Preferences *preferencesDTO `json:"preferences"`
}

func (in registerRequest) toInput() service.RegisterInput {
	return service.RegisterInput{
		Username:    in.Username,
		Email:       in.Email,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Age:         in.Age,
		Gender:      in.Gender,
		Location:    in.Location,
		Interests:   in.Interests,
		Bio:         in.Bio,
		Preferences: in.Preferences.toInput(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Username    *string         `json:"username"`
	Email       *string         `json:"email"`
	Password    *string         `json:"password"`
	FirstName   *string         `json:"firstName"`
	LastName    *string         `json:"lastName"`
	Age         *int            `json:"age"`
	Gender      *string         `json:"gender"`
	Location    *string         `json:"location"`
	Interests   *[]string       `json:"interests"`
	Bio         *string         `json:"bio"`
	Preferences *preferencesDTO `json:"preferences"`
}

func (in updateProfileRequest) toInput() service.ProfileInput {
	return service.ProfileInput{
		Username:    in.Username,
		Email:       in.Email,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Age:         in.Age,
		Gender:      in.Gender,
		Location:    in.Location,
		Interests:   in.Interests,
		Bio:         in.Bio,
		Preferences: in.Preferences.toInput(),
	}
}

type userResponse struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	Age            int            `json:"age"`
	Gender         string         `json:"gender"`
	Location       string         `json:"location"`
	Interests      []string       `json:"interests"`
	Bio            string         `json:"bio"`
	ProfilePicture string         `json:"profilePicture"`
	Preferences    preferencesDTO `json:"preferences"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func userFromModel(u *models.User) userResponse {
	genders := make([]string, 0, len(u.Preferences.Genders))
	for _, g := range u.Preferences.Genders {
		genders = append(genders, string(g))
	}

	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}

	return userResponse{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Age:            u.Age,
		Gender:         string(u.Gender),
		Location:       u.Location,
		Interests:      interests,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Preferences: preferencesDTO{
			Genders: genders,
			MinAge:  u.Preferences.MinAge,
			MaxAge:  u.Preferences.MaxAge,
		},
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// accessResponse — access-токен и момент его истечения. Refresh-токен живёт только в cookie.
type accessResponse struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

type registerResponse struct {
	User userResponse `json:"user"`
	accessResponse
}

type messageResponse struct {
	Message string `json:"message"`
}

type avatarPresignRequest struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

type avatarPresignResponse struct {
	UploadURL       string            `json:"uploadUrl"`
	AvatarKey       string            `json:"avatarKey"`
	ExpiresSeconds  int64             `json:"expiresSeconds"`
	RequiredHeaders map[string]string `json:"requiredHeaders"`
}

func presignFromInfo(info *storage.UploadInfo) avatarPresignResponse {
	return avatarPresignResponse{
		UploadURL:       info.UploadURL,
		AvatarKey:       info.AvatarKey,
		ExpiresSeconds:  int64(info.Expires.Seconds()),
		RequiredHeaders: info.RequiredHeaders,
	}
}

type avatarConfirmRequest struct {
	AvatarKey string `json:"avatarKey"`
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postPatchRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type postResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func postFromModel(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID.String(),
		AuthorID:  p.AuthorID.String(),
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

type postsResponse struct {
	Posts []postResponse `json:"posts"`
}
