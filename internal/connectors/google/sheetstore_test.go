package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasisprop/concierge/internal/core/domain"
)

func TestMapColumns(t *testing.T) {
	header := []any{"PhoneNumber", "ClientName", "InterestedService", "MessageStatus", "LastContactedDate"}

	cols, err := mapColumns(header)
	require.NoError(t, err)

	assert.Equal(t, 0, cols.phoneNumber)
	assert.Equal(t, 1, cols.clientName)
	assert.Equal(t, 2, cols.interestedService)
	assert.Equal(t, 3, cols.messageStatus)
	assert.Equal(t, 4, cols.lastContacted)
}

func TestMapColumns_CaseInsensitiveAndPadded(t *testing.T) {
	header := []any{" phonenumber ", "CLIENTNAME", "messagestatus"}

	cols, err := mapColumns(header)
	require.NoError(t, err)

	assert.Equal(t, 0, cols.phoneNumber)
	assert.Equal(t, 1, cols.clientName)
	assert.Equal(t, 2, cols.messageStatus)
	assert.Equal(t, -1, cols.interestedService)
	assert.Equal(t, -1, cols.lastContacted)
}

func TestMapColumns_MissingRequired(t *testing.T) {
	header := []any{"PhoneNumber", "Notes"}

	_, err := mapColumns(header)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSheetAccess)
	assert.Contains(t, err.Error(), "ClientName")
	assert.Contains(t, err.Error(), "MessageStatus")
}

func TestParseTemplateGrid_SimpleText(t *testing.T) {
	template := parseTemplateGrid([][]any{{"Hi {ClientName}, about {ServiceName}."}})

	assert.Equal(t, "Hi {ClientName}, about {ServiceName}.", template.Text)
	assert.Nil(t, template.Interactive)
}

func TestParseTemplateGrid_Empty(t *testing.T) {
	assert.Equal(t, domain.MessageTemplate{}, parseTemplateGrid(nil))
	assert.Equal(t, domain.MessageTemplate{}, parseTemplateGrid([][]any{{}}))
}

func TestParseTemplateGrid_Interactive(t *testing.T) {
	values := [][]any{
		{"INTERACTIVE_MESSAGE", "Hello {ClientName}", "Tell me more", "more"},
		{"", "Interested in {ServiceName}?", "Not now", "later"},
		{"", "Tap an option", "", "dangling-id"},
	}

	template := parseTemplateGrid(values)

	require.NotNil(t, template.Interactive)
	assert.Empty(t, template.Text)
	assert.Equal(t, "Hello {ClientName}", template.Interactive.Header)
	assert.Equal(t, "Interested in {ServiceName}?", template.Interactive.Body)
	assert.Equal(t, "Tap an option", template.Interactive.Footer)

	// The third button has an id but no title, so it is dropped.
	assert.Equal(t, []domain.MessageButton{
		{Title: "Tell me more", ID: "more"},
		{Title: "Not now", ID: "later"},
	}, template.Interactive.Buttons)
}

func TestParseTemplateGrid_InteractiveRaggedGrid(t *testing.T) {
	values := [][]any{
		{"INTERACTIVE_MESSAGE"},
		{"", "Body only", "Go", "go"},
	}

	template := parseTemplateGrid(values)

	require.NotNil(t, template.Interactive)
	assert.Empty(t, template.Interactive.Header)
	assert.Equal(t, "Body only", template.Interactive.Body)
	assert.Equal(t, []domain.MessageButton{{Title: "Go", ID: "go"}}, template.Interactive.Buttons)
}

func TestCellValue(t *testing.T) {
	row := []any{"a", " b ", 42}

	assert.Equal(t, "a", cellValue(row, 0))
	assert.Equal(t, "b", cellValue(row, 1))
	assert.Equal(t, "42", cellValue(row, 2))
	assert.Equal(t, "", cellValue(row, 3), "short rows read as empty")
	assert.Equal(t, "", cellValue(row, -1))
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		column int
		want   string
	}{
		{0, "A"},
		{3, "D"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tt := range tests {
		if got := columnLetter(tt.column); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.column, got, tt.want)
		}
	}
}
