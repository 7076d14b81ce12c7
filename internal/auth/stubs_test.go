package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/auth/session"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
)

type stubProfileRepo struct {
	byID map[uuid.UUID]*models.Profile
}

func newStubProfileRepo(profiles ...*models.Profile) *stubProfileRepo {
	repo := &stubProfileRepo{byID: map[uuid.UUID]*models.Profile{}}
	for _, p := range profiles {
		repo.byID[p.ID] = p
	}
	return repo
}

func (s *stubProfileRepo) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, p := range s.byID {
		if p.Email == strings.ToLower(email) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) Create(_ context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	s.byID[profile.ID] = profile
	return nil
}

type stubSession struct {
	userID uuid.UUID
	token  string
}

type stubSessionManager struct {
	sessions map[string]stubSession
	counter  int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]stubSession{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.counter++
	token := "refresh-" + uuid.NewString()
	s.sessions[accessID] = stubSession{userID: userID, token: token}
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	stored, ok := s.sessions[oldAccessID]
	if !ok || stored.userID != userID || stored.token != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	newID := session.NewAccessID()
	token, _ := s.Generate(ctx, newID, userID)
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.sessions, accessID)
	return nil
}
