package submitter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admission-intake/internal/models"
)

func TestPrompter_Collect(t *testing.T) {
	input := strings.Join([]string{
		"Margaret Hamilton",
		"Cambridge, Massachusetts",
		"BA Mathematics",
		"MSc Information Systems & computing",
		"2027 Jan",
	}, "\n") + "\n"

	var out bytes.Buffer
	rec, err := NewPrompter(strings.NewReader(input), &out).Collect()

	require.NoError(t, err)
	assert.Equal(t, createTestRecord(), rec)
	assert.Contains(t, out.String(), "--- College Admission Application ---")
	assert.Contains(t, out.String(), "Available Courses: MSc in Cyber Security, MSc Information Systems & computing, MSc Data Analytics")
}

func TestPrompter_RepromptsInvalidCourse(t *testing.T) {
	input := "Ada\nLondon\nBSc\nMBA\nmsc data analytics\nMSc Data Analytics\n2026 Sep\n"

	var out bytes.Buffer
	rec, err := NewPrompter(strings.NewReader(input), &out).Collect()

	require.NoError(t, err)
	assert.Equal(t, models.CourseDataAnalytics, rec.Course)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid course name. Please select from the list."))
}

func TestPrompter_RepromptsEmptyField(t *testing.T) {
	input := "\n   \nAda\nLondon\nBSc\nMSc in Cyber Security\n2026 Sep"

	var out bytes.Buffer
	rec, err := NewPrompter(strings.NewReader(input), &out).Collect()

	require.NoError(t, err)
	assert.Equal(t, "Ada", rec.Name)
	assert.Equal(t, "2026 Sep", rec.StartPeriod)
	assert.Equal(t, 2, strings.Count(out.String(), "This field is required."))
}

func TestPrompter_InputClosed(t *testing.T) {
	var out bytes.Buffer
	_, err := NewPrompter(strings.NewReader("Ada\nLondon\n"), &out).Collect()

	assert.ErrorIs(t, err, ErrInputClosed)
}
