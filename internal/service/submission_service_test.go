package service

import (
	"context"
	"fmt"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSubmissions_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.seed(t, model.Submission{
			Title:       fmt.Sprintf("project %02d", i),
			SubmittedAt: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}

	listing, err := f.listing.ListSubmissions(context.Background(), f.actor(f.admin),
		SubmissionFilter{}, PageRequest{Page: 2, Limit: 10}, SortSpec{})
	require.NoError(t, err)

	require.Len(t, listing.Submissions, 10)
	assert.Equal(t, "project 14", listing.Submissions[0].Title)
	assert.Equal(t, "project 05", listing.Submissions[9].Title)
	assert.Equal(t, util.Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3, HasNext: true, HasPrev: true}, listing.Pagination)

	require.NotNil(t, listing.Analytics)
	assert.Equal(t, int64(25), listing.Analytics.Total)
	assert.Equal(t, int64(25), listing.Analytics.Pending)

	last, err := f.listing.ListSubmissions(context.Background(), f.actor(f.admin),
		SubmissionFilter{}, PageRequest{Page: 3, Limit: 10}, SortSpec{})
	require.NoError(t, err)
	assert.Len(t, last.Submissions, 5)
	assert.False(t, last.Pagination.HasNext)
}

func TestListSubmissions_DateRangeExcludesNextMonth(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Submission{Title: "mid january", SubmittedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)})
	f.seed(t, model.Submission{Title: "last evening", SubmittedAt: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)})
	f.seed(t, model.Submission{Title: "february", SubmittedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	f.seed(t, model.Submission{Title: "december", SubmittedAt: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)})

	listing, err := f.listing.ListSubmissions(context.Background(), f.actor(f.admin),
		SubmissionFilter{DateFrom: "2024-01-01", DateTo: "2024-01-31"}, PageRequest{}, SortSpec{})
	require.NoError(t, err)

	titles := make([]string, 0, len(listing.Submissions))
	for _, s := range listing.Submissions {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"last evening", "mid january"}, titles)
	assert.Equal(t, int64(2), listing.Analytics.Total)
}

func TestListSubmissions_MentorScope(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Submission{Title: "alice one", MentorID: &f.alice.ID})
	f.seedReviewed(t, f.alice, model.StatusApproved, baseTime, time.Hour)
	f.seed(t, model.Submission{Title: "bob one", MentorID: &f.bob.ID})
	f.seed(t, model.Submission{Title: "unassigned"})

	// 导师传入其他导师的 ID 也只能看到自己的
	listing, err := f.listing.ListSubmissions(context.Background(), f.actor(f.alice),
		SubmissionFilter{MentorID: strconv.FormatUint(uint64(f.bob.ID), 10)}, PageRequest{}, SortSpec{})
	require.NoError(t, err)
	require.Len(t, listing.Submissions, 2)
	for _, s := range listing.Submissions {
		require.NotNil(t, s.Mentor)
		assert.Equal(t, f.alice.ID, s.Mentor.ID)
	}
	assert.Equal(t, int64(2), listing.Analytics.Total)
	assert.Equal(t, int64(1), listing.Analytics.Approved)
	assert.Equal(t, 50.0, listing.Analytics.ApprovalRate)

	pending, err := f.listing.ListSubmissions(context.Background(), f.actor(f.alice),
		SubmissionFilter{Status: "pending"}, PageRequest{}, SortSpec{})
	require.NoError(t, err)
	require.Len(t, pending.Submissions, 1)
	assert.Equal(t, "alice one", pending.Submissions[0].Title)
}

func TestListSubmissions_SortByScore(t *testing.T) {
	f := newFixture(t)
	for i, score := range []float64{70, 95, 40} {
		s := f.seed(t, model.Submission{Title: fmt.Sprintf("scored %d", i)})
		_, err := f.reviews.ReviewSubmission(context.Background(), f.actor(f.alice), s.ID, ReviewInput{
			Status: statusPtr(model.StatusApproved),
			Score:  floatPtr(score),
		})
		require.NoError(t, err)
	}

	listing, err := f.listing.ListSubmissions(context.Background(), f.actor(f.admin),
		SubmissionFilter{}, PageRequest{}, SortSpec{Field: "score", Direction: "asc"})
	require.NoError(t, err)
	require.Len(t, listing.Submissions, 3)
	assert.Equal(t, 40.0, *listing.Submissions[0].Score)
	assert.Equal(t, 70.0, *listing.Submissions[1].Score)
	assert.Equal(t, 95.0, *listing.Submissions[2].Score)
}

func TestListSubmissions_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.listing.ListSubmissions(context.Background(), f.actor(f.learner),
		SubmissionFilter{}, PageRequest{}, SortSpec{})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.listing.ListSubmissions(context.Background(), f.actor(f.admin),
		SubmissionFilter{Status: "archived"}, PageRequest{}, SortSpec{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestProjector_ResolvesRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	career := model.Career{Name: "Frontend", Description: "Web UI"}
	require.NoError(t, f.careers.Create(ctx, &career))
	project := model.Project{ID: "proj-todo", Title: "Todo App"}
	require.NoError(t, f.projects.Create(ctx, &project))

	projectID := project.ID
	orphan := "proj-missing"
	submissions := []model.Submission{
		f.seed(t, model.Submission{CareerID: &career.ID, ProjectID: &projectID, MentorID: &f.alice.ID}),
		f.seed(t, model.Submission{ProjectID: &orphan}),
	}

	views, err := NewProjector(f.users, f.careers, f.projects).Project(ctx, submissions)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, PersonRef{ID: f.learner.ID, Name: "Lena", Email: "lena@example.com"}, views[0].Learner)
	assert.Equal(t, &CareerRef{ID: career.ID, Name: "Frontend", Description: "Web UI"}, views[0].Career)
	assert.Equal(t, ProjectRef{ID: "proj-todo", Title: "Todo App"}, views[0].Project)
	assert.Equal(t, &PersonRef{ID: f.alice.ID, Name: "Alice", Email: "alice@example.com"}, views[0].Mentor)

	assert.Nil(t, views[1].Career)
	assert.Nil(t, views[1].Mentor)
	assert.Equal(t, ProjectRef{ID: "proj-missing", Title: "portfolio site"}, views[1].Project)
}
