package query

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RequestOutcomes(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...))

	ok := requestsTotal.WithLabelValues("exists", outcomeOK)
	callerErr := requestsTotal.WithLabelValues("generate", outcomeCallerError)
	okBefore, callerBefore := testutil.ToFloat64(ok), testutil.ToFloat64(callerErr)

	_, err := e.LayersExist(context.Background(), []string{fourLayers[0]})
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), Context{}, -1, false)
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, callerBefore+1, testutil.ToFloat64(callerErr))
}

func TestMetrics_GeneratedLayersByStrategy(t *testing.T) {
	memory := generatedLayers.WithLabelValues(strategyMemory)
	distinct := generatedLayers.WithLabelValues(strategyDistinct)
	memoryBefore, distinctBefore := testutil.ToFloat64(memory), testutil.ToFloat64(distinct)

	catalog := newCatalog(t, fourLayers...)
	_, err := newEngine(catalog).Generate(context.Background(), Context{}, 3, false)
	require.NoError(t, err)
	_, err = newEngine(catalog, WithLowCardinalityMax(1)).Generate(context.Background(), Context{}, 2, false)
	require.NoError(t, err)

	assert.Equal(t, memoryBefore+3, testutil.ToFloat64(memory))
	assert.Equal(t, distinctBefore+2, testutil.ToFloat64(distinct))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, outcomeOK, outcome(nil))
	assert.Equal(t, outcomeCallerError, outcome(inputError(ErrCodeInvalidPage, "bad")))
	assert.Equal(t, outcomeError, outcome(errCatalogDown))
}
