package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

// Service resolves which customer group a calculation prices against.
type Service interface {
	ResolveGroup(ctx context.Context, customerID, groupID *uuid.UUID) (*Resolution, error)
	ListGroups(ctx context.Context) ([]models.CustomerGroup, error)
}

// groupReader is the repository surface the service needs.
type groupReader interface {
	Customer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Group(ctx context.Context, id uuid.UUID) (*models.CustomerGroup, error)
	DefaultGroup(ctx context.Context) (*models.CustomerGroup, error)
	ListGroups(ctx context.Context) ([]models.CustomerGroup, error)
}

// Resolution is the outcome of group resolution. GroupID is nil when no group
// could be determined; pricing then sees only globally scoped records.
type Resolution struct {
	GroupID  *uuid.UUID
	Group    *models.CustomerGroup
	Warnings []string
}

type service struct {
	repo groupReader
	logg *logger.Logger
}

// NewService builds the customer group resolution service.
func NewService(repo groupReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ResolveGroup picks the pricing group in precedence order: an explicit group,
// then the customer's assigned group, then the system default. A missing
// default is not fatal; the calculation degrades to global prices with a
// warning.
func (s *service) ResolveGroup(ctx context.Context, customerID, groupID *uuid.UUID) (*Resolution, error) {
	if groupID != nil {
		group, err := s.repo.Group(ctx, *groupID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer group")
		}
		if group == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer group not found")
		}
		return &Resolution{GroupID: &group.ID, Group: group}, nil
	}

	if customerID != nil {
		customer, err := s.repo.Customer(ctx, *customerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
		}
		if customer == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		if customer.GroupID != nil {
			group, err := s.repo.Group(ctx, *customer.GroupID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer group")
			}
			if group != nil {
				return &Resolution{GroupID: &group.ID, Group: group}, nil
			}
		}
	}

	group, err := s.repo.DefaultGroup(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading default customer group")
	}
	if group == nil {
		warning := pkgerrors.MetadataFor(pkgerrors.CodeMissingDefaultGroup).PublicMessage
		s.logg.Warn(ctx, warning)
		return &Resolution{Warnings: []string{warning}}, nil
	}
	return &Resolution{GroupID: &group.ID, Group: group}, nil
}

// ListGroups returns every customer group ordered by code.
func (s *service) ListGroups(ctx context.Context) ([]models.CustomerGroup, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customer groups")
	}
	return groups, nil
}
