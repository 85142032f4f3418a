package api

import (
	"context"
	"io"

	"github.com/medcareai/medcare-client/internal/client/models"
)

// Client is the outbound surface of the MedCare backend as consumed by the
// rest of the client. Implementations attach the persisted credential to
// every request and normalize failures into *APIError.
type Client interface {
	// Auth endpoints.
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Signup(ctx context.Context, fullName, email, password string) (*models.AuthResult, error)
	GoogleAuth(ctx context.Context, credential string) (*models.AuthResult, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error

	// Content endpoints.
	News(ctx context.Context, q models.NewsQuery) (*models.NewsPage, error)
	About(ctx context.Context) (*models.Message, error)
	Contact(ctx context.Context) (*models.Message, error)
	AskDoctor(ctx context.Context) (*models.Message, error)
	Report(ctx context.Context) (*models.Message, error)
	Rays(ctx context.Context) (*models.Message, error)
	Analysis(ctx context.Context) (*models.Message, error)
	UploadMRI(ctx context.Context, fileName string, file io.Reader) (*models.Message, error)
}

// Navigator is the slice of the routing layer the gateway needs for the
// expired-session redirect. The gateway never navigates anywhere else.
type Navigator interface {
	// CurrentPath returns the path of the currently rendered view.
	CurrentPath() string

	// RedirectToLogin moves the user to the login view; sessionExpired
	// selects the annotated "your session expired" variant.
	RedirectToLogin(sessionExpired bool)
}
