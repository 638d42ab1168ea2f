package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/hydration-tracker/internal/api/handlers"
	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/repository/memory"
	"github.com/dom/hydration-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededServer starts a server whose single user has the given days logged.
func seededServer(t *testing.T, goal int, days ...domain.DayData) (*testutil.TestServer, string) {
	t.Helper()

	store := memory.NewStore()
	keys := testutil.TestServerKeys()
	user := testutil.NewUserBuilder().WithDailyGoal(goal).Build()
	testutil.SeedUsers(t, store, keys, user.ID, user)
	testutil.SeedLog(t, store, keys, user.ID, days...)

	return testutil.NewTestServerWithStore(t, store), user.ID
}

func TestWaterHandler_Today_Empty(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.Do(t, http.MethodGet, ts.APIURL("/today"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var today handlers.TodayResponse
	testutil.AssertJSONResponse(t, resp, &today)
	assert.Equal(t, domain.DayKey(testutil.TestNow), today.Date)
	assert.Equal(t, 0, today.Total)
	assert.Equal(t, 2000, today.Goal)
	assert.Equal(t, 2000, today.Remaining)
	assert.NotNil(t, today.Entries)
	assert.Empty(t, today.Entries)
}

func TestWaterHandler_AddEntry(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedError  string
		expectedML     int
		expectedText   string
	}{
		{
			name:           "milliliters",
			body:           handlers.AddEntryRequest{Amount: 250, Unit: "ml"},
			expectedStatus: http.StatusCreated,
			expectedML:     250,
			expectedText:   "250 ml",
		},
		{
			name:           "liters",
			body:           handlers.AddEntryRequest{Amount: 1.5, Unit: "l"},
			expectedStatus: http.StatusCreated,
			expectedML:     1500,
			expectedText:   "1.5 L",
		},
		{
			name:           "cups",
			body:           handlers.AddEntryRequest{Amount: 1, Unit: "cups"},
			expectedStatus: http.StatusCreated,
			expectedML:     240,
			expectedText:   "1 cups",
		},
		{
			name:           "fluid ounces with message",
			body:           handlers.AddEntryRequest{Amount: 8, Unit: "oz", Message: "after run"},
			expectedStatus: http.StatusCreated,
			expectedML:     237,
			expectedText:   "8 fl oz",
		},
		{
			name:           "unknown unit",
			body:           handlers.AddEntryRequest{Amount: 250, Unit: "gallon"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid unit",
		},
		{
			name:           "zero amount",
			body:           handlers.AddEntryRequest{Amount: 0, Unit: "ml"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "greater than 0",
		},
		{
			name:           "negative amount",
			body:           handlers.AddEntryRequest{Amount: -5, Unit: "ml"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "greater than 0",
		},
		{
			name:           "message too long",
			body:           handlers.AddEntryRequest{Amount: 250, Unit: "ml", Message: strings.Repeat("a", 101)},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "at most 100 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)

			resp := testutil.Do(t, http.MethodPost, ts.APIURL("/entries"), tt.body)

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result handlers.AddEntryResponse
			testutil.AssertJSONResponse(t, resp, &result)

			assert.Equal(t, tt.expectedML, result.Milliliters)
			assert.Equal(t, tt.expectedText, result.Display)
			assert.Equal(t, tt.expectedML, result.Today.Total)
			assert.Equal(t, domain.DayKey(testutil.TestNow), result.Entry.Date)
			assert.True(t, strings.HasPrefix(result.Entry.ID, ts.CurrentUserID(t)+"_"))
			assert.Empty(t, result.Warning)
		})
	}
}

func TestWaterHandler_AddEntry_AccumulatesAndPersists(t *testing.T) {
	ts := testutil.NewTestServer(t)
	userID := ts.CurrentUserID(t)

	for _, body := range []handlers.AddEntryRequest{
		{Amount: 250, Unit: "ml"},
		{Amount: 0.5, Unit: "l"},
		{Amount: 250, Unit: "ml", Message: "lunch"},
	} {
		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/entries"), body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var today handlers.TodayResponse
	testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/today"), nil), &today)
	assert.Equal(t, 1000, today.Total)
	assert.Equal(t, "1.0L", today.Formatted)
	assert.Len(t, today.Entries, 3)
	assert.Equal(t, 50.0, today.Percentage)

	// The whole log is written through to the store
	raw, found, err := ts.Store.Get(t.Context(), ts.Keys.Log(userID))
	require.NoError(t, err)
	require.True(t, found)

	var days []domain.DayData
	require.NoError(t, json.Unmarshal(raw, &days))
	require.Len(t, days, 1)
	testutil.AssertDayTotals(t, days[0], 1000, 2000)
}

func TestWaterHandler_Presets(t *testing.T) {
	ts := testutil.NewTestServer(t)

	var result handlers.PresetsResponse
	testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/presets"), nil), &result)

	require.Len(t, result.Presets, 4)
	assert.Equal(t, "Glass", result.Presets[0].Label)
	assert.Equal(t, 250.0, result.Presets[0].Amount)
	assert.Equal(t, domain.UnitMilliliter, result.Presets[0].Unit)
}

func TestWaterHandler_RecentDays(t *testing.T) {
	now := testutil.TestNow
	ts, _ := seededServer(t, 2000,
		testutil.NewDayBuilder(now.AddDate(0, 0, -10)).WithEntries(3000).Build(), // outside the window
		testutil.NewDayBuilder(now.AddDate(0, 0, -2)).WithEntries(1000).Build(),
		testutil.NewDayBuilder(now).WithEntries(2500, 500).Build(),
	)

	var result handlers.RecentDaysResponse
	testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/history/recent"), nil), &result)

	require.Len(t, result.Days, 7)
	for i, d := range result.Days {
		date := now.AddDate(0, 0, i-6)
		assert.Equal(t, domain.DayKey(date), d.Date)
		assert.Equal(t, date.Format("Mon"), d.DayName)
		assert.LessOrEqual(t, d.Percentage, 100.0)
	}
	assert.Equal(t, 1000, result.Days[4].Total)
	assert.Equal(t, 50.0, result.Days[4].Percentage)
	assert.Equal(t, 3000, result.Days[6].Total)
	assert.Equal(t, 100.0, result.Days[6].Percentage, "percentage is clamped")
	assert.Equal(t, 0, result.Days[0].Total)
}

func TestWaterHandler_Streak(t *testing.T) {
	now := testutil.TestNow
	tests := []struct {
		name     string
		days     []domain.DayData
		expected int
	}{
		{
			name:     "no data",
			expected: 0,
		},
		{
			name: "broken by a missed day",
			days: []domain.DayData{
				testutil.NewDayBuilder(now.AddDate(0, 0, -3)).WithEntries(2000).Build(),
				testutil.NewDayBuilder(now.AddDate(0, 0, -2)).WithEntries(1000).Build(),
				testutil.NewDayBuilder(now.AddDate(0, 0, -1)).WithEntries(2000).Build(),
				testutil.NewDayBuilder(now).WithEntries(2500).Build(),
			},
			expected: 2,
		},
		{
			name: "today below goal",
			days: []domain.DayData{
				testutil.NewDayBuilder(now.AddDate(0, 0, -1)).WithEntries(2000).Build(),
				testutil.NewDayBuilder(now).WithEntries(500).Build(),
			},
			expected: 0,
		},
		{
			name: "each day uses its own goal",
			days: []domain.DayData{
				testutil.NewDayBuilder(now.AddDate(0, 0, -1)).WithGoal(1500).WithEntries(1500).Build(),
				testutil.NewDayBuilder(now).WithEntries(2000).Build(),
			},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := seededServer(t, 2000, tt.days...)

			var result handlers.StreakResponse
			testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/history/streak"), nil), &result)
			assert.Equal(t, tt.expected, result.Streak)
		})
	}
}

func TestWaterHandler_Stats(t *testing.T) {
	now := testutil.TestNow
	ts, _ := seededServer(t, 2000,
		testutil.NewDayBuilder(now.AddDate(0, 0, -2)).WithEntries(1000).Build(),
		testutil.NewDayBuilder(now.AddDate(0, 0, -1)).WithEntries(2001).Build(),
		testutil.NewDayBuilder(now).WithEntries(2000).Build(),
	)

	var stats domain.Stats
	testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/history/stats"), nil), &stats)

	assert.Equal(t, 3, stats.DaysTracked)
	assert.Equal(t, 2, stats.GoalsMet)
	assert.Equal(t, 5001, stats.TotalLogged)
	assert.Equal(t, 1667, stats.DailyAverage)
	assert.Equal(t, 2, stats.CurrentStreak)
}

func TestWaterHandler_Export(t *testing.T) {
	now := testutil.TestNow
	ts, userID := seededServer(t, 2000,
		testutil.NewDayBuilder(now.AddDate(0, 0, -1)).WithEntries(800).Build(),
		testutil.NewDayBuilder(now).WithEntries(250, 250).Build(),
	)

	resp := testutil.Do(t, http.MethodGet, ts.APIURL("/export"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), userID)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "\n  {", "export is indented")

	var days []domain.DayData
	require.NoError(t, json.Unmarshal(body, &days))
	require.Len(t, days, 2)
	testutil.AssertDayTotals(t, days[0], 800, 2000)
	testutil.AssertDayTotals(t, days[1], 500, 2000)
}

func TestWaterHandler_CorruptLogLoadsEmpty(t *testing.T) {
	store := memory.NewStore()
	keys := testutil.TestServerKeys()
	user := testutil.NewUserBuilder().Build()
	testutil.SeedUsers(t, store, keys, user.ID, user)
	store.SetRaw(keys.Log(user.ID), `{not json`)

	ts := testutil.NewTestServerWithStore(t, store)

	var today handlers.TodayResponse
	testutil.AssertJSONResponse(t, testutil.Do(t, http.MethodGet, ts.APIURL("/today"), nil), &today)
	assert.Equal(t, 0, today.Total)

	// Logging again replaces the corrupt value
	resp := testutil.Do(t, http.MethodPost, ts.APIURL("/entries"), handlers.AddEntryRequest{Amount: 250, Unit: "ml"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var days []domain.DayData
	raw, _, err := store.Get(t.Context(), keys.Log(user.ID))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &days))
	assert.Len(t, days, 1)
}
