package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCourse_RecomputeRatings(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "no reviews", ratings: nil, want: 0},
		{name: "single review", ratings: []int{4}, want: 4},
		{name: "mean of several", ratings: []int{5, 4, 3}, want: 4},
		{name: "non-integer mean", ratings: []int{5, 4}, want: 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := &Course{}
			for _, r := range tt.ratings {
				course.Reviews = append(course.Reviews, Review{ID: uuid.New(), Rating: r})
			}
			course.RecomputeRatings()
			assert.Equal(t, tt.want, course.Ratings)
		})
	}
}

func TestCourse_PublicView(t *testing.T) {
	course := Course{
		Name: "Test Course",
		Content: []ContentItem{
			{
				ID:         uuid.New(),
				Title:      "Lesson 1",
				VideoURL:   "https://cdn/v1",
				Suggestion: "watch twice",
				Links:      []Link{{Title: "ref", URL: "https://ref"}},
				Questions:  []Question{{ID: uuid.New(), Text: "q"}},
			},
		},
	}

	public := course.PublicView()

	assert.Equal(t, "Lesson 1", public.Content[0].Title)
	assert.Empty(t, public.Content[0].VideoURL)
	assert.Empty(t, public.Content[0].Suggestion)
	assert.Empty(t, public.Content[0].Links)
	assert.Empty(t, public.Content[0].Questions)

	// The original document keeps its paid fields.
	assert.Equal(t, "https://cdn/v1", course.Content[0].VideoURL)
	assert.Len(t, course.Content[0].Questions, 1)
}

func TestUser_IsEnrolled(t *testing.T) {
	courseID := uuid.New()
	user := User{Courses: []Enrollment{{CourseID: courseID}}}

	assert.True(t, user.IsEnrolled(courseID))
	assert.False(t, user.IsEnrolled(uuid.New()))
}
