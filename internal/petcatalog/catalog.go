// Package petcatalog defines the port to the external pet catalog. The
// catalog owns pet records and availability; this engine only tells it when
// an application is approved or an organization disappears.
package petcatalog

import (
	"context"
	"log/slog"

	"homeward/pkg/domain"
)

type Catalog interface {
	// NotifyApplicationApproved tells the catalog to update the pet's
	// availability after an approval.
	NotifyApplicationApproved(ctx context.Context, petID domain.PetID, appID domain.ApplicationID) error
	// OrganizationDeleted tells the catalog to drop the organization's pets.
	OrganizationDeleted(ctx context.Context, orgID domain.OrganizationID) error
}

// Noop ignores all catalog notifications.
type Noop struct{}

func (Noop) NotifyApplicationApproved(context.Context, domain.PetID, domain.ApplicationID) error {
	return nil
}

func (Noop) OrganizationDeleted(context.Context, domain.OrganizationID) error { return nil }

// LogCatalog records catalog notifications in the structured log. Used when
// no catalog integration is configured.
type LogCatalog struct {
	Logger *slog.Logger
}

func (c LogCatalog) NotifyApplicationApproved(ctx context.Context, petID domain.PetID, appID domain.ApplicationID) error {
	c.Logger.InfoContext(ctx, "pet catalog notified of approval",
		"pet_id", petID.String(),
		"application_id", appID.String(),
	)
	return nil
}

func (c LogCatalog) OrganizationDeleted(ctx context.Context, orgID domain.OrganizationID) error {
	c.Logger.InfoContext(ctx, "pet catalog notified of organization deletion",
		"organization_id", orgID.String(),
	)
	return nil
}
