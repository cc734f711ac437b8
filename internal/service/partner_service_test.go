package service

import (
	"context"
	"testing"

	"sitebooks/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartnerPath(t *testing.T) {
	assert.Equal(t, PathCustomers, PartnerPath(model.PartnerKindCustomer))
	assert.Equal(t, PathSuppliers, PartnerPath(model.PartnerKindSupplier))
	assert.Empty(t, PartnerPath("vendor"))
}

func TestPartnerKinds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	partners := f.partnerService()

	_, err := partners.CreatePartner(ctx, "", PartnerRequest{Kind: "vendor", Name: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := partners.CreatePartner(ctx, "", PartnerRequest{Kind: model.PartnerKindCustomer, Name: "شركة الإعمار"})
	require.NoError(t, err)
	assert.True(t, f.rec.touched(PathCustomers))
	assert.False(t, f.rec.touched(PathSuppliers))

	f.rec.reset()
	p, err = partners.UpdatePartner(ctx, "", p.ID.String(), PartnerRequest{Kind: model.PartnerKindSupplier, Name: "شركة الإعمار"})
	require.NoError(t, err)
	assert.Equal(t, model.PartnerKindSupplier, p.Kind)
	assert.True(t, f.rec.touched(PathCustomers))
	assert.True(t, f.rec.touched(PathSuppliers))

	customers, err := partners.AllPartners(ctx, model.PartnerKindCustomer)
	require.NoError(t, err)
	assert.Empty(t, customers)
	suppliers, err := partners.AllPartners(ctx, model.PartnerKindSupplier)
	require.NoError(t, err)
	assert.Len(t, suppliers, 1)

	_, _, err = partners.ListPartners(ctx, "vendor", "", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, partners.DeletePartner(ctx, "", p.ID.String()))
	assert.ErrorIs(t, partners.DeletePartner(ctx, "", p.ID.String()), ErrNotFound)
}
