package service

import (
	"context"
	"testing"
	"time"

	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFeedbackRatingRange(t *testing.T) {
	f := newFixture(t)
	student := register(t, f, "Sam", "sam@college.edu", model.RoleStudent)

	for r := -1; r <= 7; r++ {
		_, err := f.feedback.Create(context.Background(), &model.CreateFeedbackRequest{
			UserID: student.ID, Category: "Facilities", Rating: model.Rating(r),
		})
		if r >= model.MinRating && r <= model.MaxRating {
			assert.NoError(t, err, "rating %d", r)
			continue
		}
		var verr *ValidationError
		if assert.ErrorAs(t, err, &verr, "rating %d", r) {
			assert.Contains(t, verr.Fields, "rating")
		}
	}
}

func TestCreateFeedbackRequiresFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.feedback.Create(context.Background(), &model.CreateFeedbackRequest{Rating: 3})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")
	assert.Contains(t, verr.Fields, "category")
}

func TestCreateFeedbackUnknownOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.feedback.Create(context.Background(), &model.CreateFeedbackRequest{UserID: 42, Category: "Faculty", Rating: 2})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "user_id")
}

func TestFeedbackRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := register(t, f, "Sam", "sam@college.edu", model.RoleStudent)
	before := time.Now().Add(-time.Second)

	created, err := f.feedback.Create(ctx, &model.CreateFeedbackRequest{
		UserID: student.ID, Category: "Facilities", Rating: 4, Comments: "Good",
	})
	require.NoError(t, err)

	history, err := f.feedback.History(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Facilities", got.Category)
	assert.Equal(t, 4, got.Rating)
	require.NotNil(t, got.Comments)
	assert.Equal(t, "Good", *got.Comments)
	assert.Equal(t, model.FeedbackStatusActive, got.Status)
	assert.False(t, got.CreatedAt.Before(before))
}

func TestEmptyCommentsStoredAsNull(t *testing.T) {
	f := newFixture(t)
	student := register(t, f, "Sam", "sam@college.edu", model.RoleStudent)

	created, err := f.feedback.Create(context.Background(), &model.CreateFeedbackRequest{
		UserID: student.ID, Category: "Other", Rating: 5, Comments: "   ",
	})
	require.NoError(t, err)
	assert.Nil(t, created.Comments)
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := register(t, f, "A", "a@college.edu", model.RoleStudent)
	b := register(t, f, "B", "b@college.edu", model.RoleStudent)

	for _, id := range []int{a.ID, b.ID, a.ID} {
		_, err := f.feedback.Create(ctx, &model.CreateFeedbackRequest{UserID: id, Category: "Faculty", Rating: 3})
		require.NoError(t, err)
	}

	history, err := f.feedback.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, fb := range history {
		assert.Equal(t, a.ID, fb.UserID)
	}
	assert.Greater(t, history[0].ID, history[1].ID)
}

func TestListAllCarriesSubmitterName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := register(t, f, "Sam", "sam@college.edu", model.RoleStudent)

	_, err := f.feedback.Create(ctx, &model.CreateFeedbackRequest{UserID: student.ID, Category: "Faculty", Rating: 1})
	require.NoError(t, err)

	all, err := f.feedback.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Sam", all[0].StudentName)
}

func TestDeleteFeedbackIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := register(t, f, "Sam", "sam@college.edu", model.RoleStudent)

	created, err := f.feedback.Create(ctx, &model.CreateFeedbackRequest{UserID: student.ID, Category: "Faculty", Rating: 1})
	require.NoError(t, err)

	require.NoError(t, f.feedback.Delete(ctx, created.ID))
	require.NoError(t, f.feedback.Delete(ctx, created.ID))

	history, err := f.feedback.History(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, []events.Kind{
		events.KindUserRegistered,
		events.KindFeedbackCreated,
		events.KindFeedbackDeleted,
		events.KindFeedbackDeleted,
	}, f.bus.Kinds())
}
