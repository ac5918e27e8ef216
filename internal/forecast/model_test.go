package forecast

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func decode(t *testing.T, raw string) *AdditiveModel {
	t.Helper()
	m, err := DecodeModel(strings.NewReader(raw))
	require.NoError(t, err)
	return m
}

func TestDecodeFixture(t *testing.T) {
	f, err := os.Open("testdata/demand_model_product_1.json")
	require.NoError(t, err)
	defer f.Close()

	m, err := DecodeModel(f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ProductID)
	assert.Equal(t, day(2024, 1, 10), m.LastDate())
	assert.Equal(t, []string{"on_promotion"}, m.Regressors())
}

func TestFutureDatesExtendHistory(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":9,"y_scale":1,"trend":{"m":1}}`)

	dates := m.FutureDates(14)
	require.Len(t, dates, 24)
	assert.Equal(t, day(2024, 1, 1), dates[0])
	assert.Equal(t, day(2024, 1, 24), dates[len(dates)-1])
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestPredictConstantTrend(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":9,"y_scale":10,"trend":{"k":0,"m":1}}`)

	yhat, err := m.Predict(NewFrame(m.FutureDates(3)))
	require.NoError(t, err)
	require.Len(t, yhat, 13)
	for _, v := range yhat {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestPredictChangepointIsContinuous(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-11","t_scale_days":10,"y_scale":1,
		"trend":{"k":1,"m":0,"changepoints":[0.5],"deltas":[-1]}}`)

	yhat, err := m.Predict(NewFrame([]time.Time{day(2024, 1, 3), day(2024, 1, 6), day(2024, 1, 9)}))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, yhat[0], 1e-9)
	assert.InDelta(t, 0.5, yhat[1], 1e-9)
	assert.InDelta(t, 0.5, yhat[2], 1e-9)
}

func TestPredictRegressorAndHoliday(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":9,"y_scale":10,
		"trend":{"m":1},
		"holidays":[{"name":"stock-up","date":"2024-01-05","effect":0.5,"lower_window":-1,"upper_window":0}],
		"regressors":[{"name":"interest","coef":0.5,"mu":20,"std":10}]}`)

	frame := NewFrame([]time.Time{day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5)})
	frame.Set("interest", []float64{40, 20, 20})

	yhat, err := m.Predict(frame)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, yhat[0], 1e-9)
	assert.InDelta(t, 15.0, yhat[1], 1e-9)
	assert.InDelta(t, 15.0, yhat[2], 1e-9)
}

func TestPredictWeeklySeasonalityRepeats(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-31","t_scale_days":30,"y_scale":1,
		"trend":{"m":1},"weekly":{"order":1,"coefficients":[0,1]}}`)

	yhat, err := m.Predict(NewFrame(m.FutureDates(0)))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, yhat[0], 1e-9)
	assert.InDelta(t, yhat[0], yhat[7], 1e-9)
	assert.InDelta(t, yhat[3], yhat[10], 1e-9)
}

func TestPredictRejectsBadFrames(t *testing.T) {
	m := decode(t, `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":9,"y_scale":1,
		"trend":{"m":1},"regressors":[{"name":"interest","coef":1,"mu":0,"std":1}]}`)
	dates := m.FutureDates(1)

	_, err := m.Predict(NewFrame(dates))
	assert.ErrorIs(t, err, errMissingRegressor)

	frame := NewFrame(dates)
	frame.Set("interest", []float64{1, 2})
	_, err = m.Predict(frame)
	assert.Error(t, err)
}

func TestDecodeModelValidation(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"bad start":       `{"start":"01/01/2024","end":"2024-01-10","t_scale_days":1,"y_scale":1}`,
		"end before":      `{"start":"2024-02-01","end":"2024-01-10","t_scale_days":1,"y_scale":1}`,
		"zero scale":      `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":0,"y_scale":1}`,
		"zero y scale":    `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":1,"y_scale":0}`,
		"deltas mismatch": `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":1,"y_scale":1,"trend":{"changepoints":[0.5]}}`,
		"coefficients":    `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":1,"y_scale":1,"yearly":{"order":2,"coefficients":[1]}}`,
		"unnamed term":    `{"start":"2024-01-01","end":"2024-01-10","t_scale_days":1,"y_scale":1,"regressors":[{"coef":1}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeModel(strings.NewReader(raw))
			assert.Error(t, err)
		})
	}
}
