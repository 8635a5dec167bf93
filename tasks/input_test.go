package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-task-manager/apperr"
	"team-task-manager/models"
)

func strp(s string) *string { return &s }

func TestUpdateInputFieldsRespectWritable(t *testing.T) {
	in := UpdateTaskInput{
		Title:    strp(" t "),
		Status:   strp("Completed"),
		Priority: strp("High"),
		Deadline: strp("2026-07-01"),
	}
	require.NoError(t, in.Validate())
	assert.Equal(t, "t", *in.Title)
	assert.Equal(t, Fields(FieldTitle, FieldStatus, FieldPriority, FieldDeadline), in.Present())

	f, err := in.fields(Fields(FieldStatus), time.UTC)
	require.NoError(t, err)
	assert.Nil(t, f.Title)
	assert.Nil(t, f.Priority)
	assert.Nil(t, f.Deadline)
	require.NotNil(t, f.Status)
	assert.Equal(t, models.StatusCompleted, *f.Status)

	f, err = in.fields(AllFields, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, f.Deadline)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *f.Deadline)
}

func TestUpdateInputRejectsEmptyStrings(t *testing.T) {
	in := UpdateTaskInput{Description: strp("   ")}
	err := in.Validate()
	require.Error(t, err)
	assert.Equal(t, []apperr.FieldError{{Field: "description", Message: msgDescription}}, apperr.As(err).Fields)
}

func TestCreateInputDeadline(t *testing.T) {
	in := CreateTaskInput{Deadline: "2026-06-10T14:30:00Z"}
	_, err := in.deadline(now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "equal to now is not in the future")

	in.Deadline = "2026-06-11"
	d, err := in.deadline(now)
	require.NoError(t, err)
	assert.Equal(t, 11, d.Day())
}

func TestCommentInput(t *testing.T) {
	in := CommentInput{Text: "  hello  "}
	require.NoError(t, in.Validate())
	assert.Equal(t, "hello", in.Text)

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	for _, text := range []string{"", "   ", string(long)} {
		in := CommentInput{Text: text}
		err := in.Validate()
		require.Error(t, err)
		assert.Equal(t, msgComment, apperr.As(err).Fields[0].Message)
	}
}
