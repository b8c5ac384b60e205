package markdown

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidytodo/backend"
)

func TestStatusChar(t *testing.T) {
	assert.Equal(t, "x", FormatStatusChar(true))
	assert.Equal(t, " ", FormatStatusChar(false))
	assert.True(t, ParseStatusChar("x"))
	assert.True(t, ParseStatusChar("X"))
	assert.False(t, ParseStatusChar(" "))
	assert.False(t, ParseStatusChar("~"))
}

func TestParseTaskText(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantTitle    string
		wantPriority backend.Priority
		wantDate     string
		wantTags     []string
	}{
		{name: "plain", text: "Simple task", wantTitle: "Simple task", wantPriority: backend.PriorityMedium},
		{name: "priority", text: "Pay bills !urgent", wantTitle: "Pay bills", wantPriority: backend.PriorityUrgent},
		{name: "date", text: "Dentist @2030-01-05", wantTitle: "Dentist", wantPriority: backend.PriorityMedium, wantDate: "2030-01-05"},
		{
			name:         "everything",
			text:         "Report !high @2030-01-10 #work #q1",
			wantTitle:    "Report",
			wantPriority: backend.PriorityHigh,
			wantDate:     "2030-01-10",
			wantTags:     []string{"work", "q1"},
		},
		{name: "hash inside title", text: "Fix bug #12 today", wantTitle: "Fix bug #12 today", wantPriority: backend.PriorityMedium},
		{name: "unknown priority stays in title", text: "Wow !nice", wantTitle: "Wow !nice", wantPriority: backend.PriorityMedium},
		{name: "single token is a title", text: "#hashtag", wantTitle: "#hashtag", wantPriority: backend.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, priority, deadline, tags := ParseTaskText(tt.text)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantPriority, priority)
			assert.Equal(t, tt.wantTags, tags)
			if tt.wantDate == "" {
				assert.Nil(t, deadline)
				return
			}
			require.NotNil(t, deadline)
			assert.Equal(t, tt.wantDate, deadline.Format(dateLayout))
		})
	}
}

func TestFormatTaskText(t *testing.T) {
	d := time.Date(2030, 1, 10, 0, 0, 0, 0, time.Local)
	task := backend.Task{
		Title:    "Report",
		Priority: backend.PriorityHigh,
		Deadline: &d,
		Tags:     []string{"work"},
	}
	assert.Equal(t, "Report !high @2030-01-10 #work", FormatTaskText(task))

	task = backend.Task{Title: "Milk", Priority: backend.PriorityMedium}
	assert.Equal(t, "Milk", FormatTaskText(task))
}

func TestWrite(t *testing.T) {
	state := backend.AppState{
		Categories: []backend.Category{
			{ID: "g", Name: "Garden", Color: "#22c55e", Icon: backend.Ptr("🌱")},
			{ID: "e", Name: "Empty", Color: "#6b7280"},
		},
		Tasks: []backend.Task{
			{ID: "1", Title: "Water plants", Category: "g", Priority: backend.PriorityLow, Description: "front\nback"},
			{ID: "2", Title: "Lost", Category: "gone", Priority: backend.PriorityMedium, Completed: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, state))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "write", buf.Bytes())
}

func TestParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	input := `# My list

- [ ] Loose task

## Home <!-- color=#3b82f6 icon=🏠 -->
- [x] Clean !high #weekly
  kitchen first
  then the hall
* [ ] Shop @2030-02-01

Some trailing prose.
  not a description
`
	rec, err := Parse(strings.NewReader(input), now)
	require.NoError(t, err)

	require.Len(t, rec.Categories, 2)
	assert.Equal(t, Uncategorized, rec.Categories[0].Name)
	home := rec.Categories[1]
	assert.Equal(t, "Home", home.Name)
	assert.Equal(t, "#3b82f6", home.Color)
	require.NotNil(t, home.Icon)
	assert.Equal(t, "🏠", *home.Icon)

	require.Len(t, rec.Todos, 3)
	assert.Equal(t, "Loose task", rec.Todos[0].Title)
	assert.Equal(t, rec.Categories[0].ID, rec.Todos[0].Category)

	clean := rec.Todos[1]
	assert.True(t, clean.Completed)
	assert.Equal(t, "high", clean.Priority)
	assert.Equal(t, []string{"weekly"}, clean.Tags)
	assert.Equal(t, "kitchen first\nthen the hall", clean.Description)
	assert.Equal(t, home.ID, clean.Category)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", clean.CreatedAt)

	shop := rec.Todos[2]
	require.NotNil(t, shop.Deadline)
	assert.Empty(t, shop.Description)
}

func TestParseHeadingWithoutName(t *testing.T) {
	_, err := Parse(strings.NewReader("## <!-- color=#fff -->\n"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
