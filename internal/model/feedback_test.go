package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rating
		wantErr bool
	}{
		{name: "number", input: `{"rating": 4}`, want: 4},
		{name: "numeric string", input: `{"rating": "5"}`, want: 5},
		{name: "null", input: `{"rating": null}`, want: 0},
		{name: "empty string", input: `{"rating": ""}`, want: 0},
		{name: "out of range still parses", input: `{"rating": 9}`, want: 9},
		{name: "fraction", input: `{"rating": 2.5}`, wantErr: true},
		{name: "word", input: `{"rating": "four"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateFeedbackRequest
			err := json.Unmarshal([]byte(tt.input), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Rating)
		})
	}
}

func TestFeedbackWithSubmitterFlattens(t *testing.T) {
	comments := "Good"
	row := FeedbackWithSubmitter{
		Feedback:    Feedback{ID: 1, UserID: 2, Category: "Facilities", Rating: 4, Comments: &comments, Status: FeedbackStatusActive},
		StudentName: "Ada",
	}

	raw, err := json.Marshal(row)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Ada", out["student_name"])
	assert.Equal(t, "Facilities", out["category"])
	assert.EqualValues(t, 2, out["user_id"])
}

func TestUserNeverSerializesPassword(t *testing.T) {
	raw, err := json.Marshal(User{ID: 1, Name: "A", Email: "a@x", PasswordHash: "secret", Role: RoleStudent})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("teacher").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleStudent}).IsAdmin())
}
