package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"github.com/stretchr/testify/require"
)

func TestLargestAvailableFirstOrdersByQuantityDescending(t *testing.T) {
	stocks := []*models.ProductStock{
		{LocationId: 1, Quantity: dec("5")},
		{LocationId: 2, Quantity: dec("30")},
		{LocationId: 3, Quantity: dec("12")},
	}

	ordered := LargestAvailableFirst(stocks)

	require.Equal(t, 2, ordered[0].LocationId)
	require.Equal(t, 3, ordered[1].LocationId)
	require.Equal(t, 1, ordered[2].LocationId)
}

func TestLargestAvailableFirstDoesNotMutateInput(t *testing.T) {
	stocks := []*models.ProductStock{
		{LocationId: 1, Quantity: dec("5")},
		{LocationId: 2, Quantity: dec("30")},
	}

	LargestAvailableFirst(stocks)

	require.Equal(t, 1, stocks[0].LocationId, "caller's slice order must survive")
}
