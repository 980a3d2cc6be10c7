package service

import (
	"context"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"go.uber.org/zap"
)

const companyID = "company"

// Company holds the single "about us" record
type Company struct {
	*resource.Collection[models.Company]
}

func NewCompany(api gateway.Requester, auth resource.Authorizer, log *zap.Logger) *Company {
	return &Company{
		Collection: resource.New(resource.Spec[models.Company]{
			Name:      "company",
			ListPath:  "/about/company",
			BasePath:  "/about",
			AdminOnly: true,
			ID:        func(*models.Company) string { return companyID },
			SetID:     func(*models.Company, string) {},
			DecodeList: func(resp *gateway.Response) ([]models.Company, error) {
				c, err := decodeWrapped[models.Company](resp, "company", "fetch company")
				if err != nil {
					return nil, err
				}
				return []models.Company{*c}, nil
			},
			DecodeItem: func(resp *gateway.Response) (*models.Company, error) {
				return decodeWrapped[models.Company](resp, "company", "update company")
			},
		}, api, auth, log),
	}
}

// Info returns the loaded record, or nil before a successful Fetch
func (c *Company) Info() *models.Company {
	items := c.Items()
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

// Fetch loads the company information
func (c *Company) Fetch(ctx context.Context) (*models.Company, error) {
	if err := c.FetchAll(ctx); err != nil {
		return nil, err
	}
	return c.Info(), nil
}

// Save updates the company information (admin only)
func (c *Company) Save(ctx context.Context, patch any) (*models.Company, error) {
	updated, err := c.Update(ctx, companyID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return c.Fetch(ctx)
	}
	return updated, nil
}
