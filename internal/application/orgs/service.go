package orgs

import (
	"context"
	"errors"
	"strings"

	"stock-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound = errors.New("Organization not found")
	ErrNameTaken            = errors.New("Organization name is already in use")
)

const searchLimit = 50

// Service manages organizations.
type Service struct {
	DB *gorm.DB
}

// Query filters Search. Empty Search matches every organization.
type Query struct {
	Search string
	Limit  int
}

// Search returns organizations whose name contains q.Search, ordered by name.
func (s *Service) Search(ctx context.Context, q Query) ([]domain.Organization, error) {
	limit := q.Limit
	if limit <= 0 || limit > searchLimit {
		limit = searchLimit
	}
	db := s.DB.WithContext(ctx).Order("name ASC").Limit(limit)
	if term := strings.TrimSpace(q.Search); term != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var out []domain.Organization
	if err := db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores an organization. Input must already have passed validation.OrganizationSchema.
func (s *Service) Create(ctx context.Context, in domain.OrganizationInput) (*domain.Organization, error) {
	name := strings.TrimSpace(in.Name)
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Organization{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrNameTaken
	}
	org := &domain.Organization{Name: name, Description: in.Description}
	if err := s.DB.WithContext(ctx).Create(org).Error; err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID returns the organization with its stock count.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	var stocks int64
	if err := s.DB.WithContext(ctx).Model(&domain.Stock{}).Where("organization_id = ?", id).Count(&stocks).Error; err != nil {
		return nil, err
	}
	org.Count = map[string]int64{"stocks": stocks}
	return &org, nil
}
