package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies error response with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	// Error responses are plain text in this API
	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertDayTotals verifies a day's total and goal, and that the total matches its entries
func AssertDayTotals(t *testing.T, day domain.DayData, expectedTotal, expectedGoal int) {
	t.Helper()

	assert.Equal(t, expectedTotal, day.Total, "unexpected total for %s", day.Date)
	assert.Equal(t, expectedGoal, day.Goal, "unexpected goal for %s", day.Date)

	sum := 0
	for _, e := range day.Entries {
		ml, err := domain.ToMilliliters(e.Amount, e.Unit)
		require.NoError(t, err)
		sum += ml
		assert.Equal(t, day.Date, e.Date, "entry %s filed under the wrong day", e.ID)
	}
	assert.Equal(t, day.Total, sum, "total does not match entries for %s", day.Date)
}
